package engine

import (
	"github.com/Ramsey-B/fern/pkg/comparators"
	"github.com/Ramsey-B/fern/pkg/models"
)

// VectorBuilder produces the similarity vector for a candidate pair. Slot
// order follows the configured comparison order, never map iteration order.
type VectorBuilder struct {
	fields []string
	comps  []comparators.Comparator
}

// NewVectorBuilder compiles the configured field comparisons. Invalid
// metric/field combinations fail here, before any records are processed.
func NewVectorBuilder(comparisons []models.FieldComparison) (*VectorBuilder, error) {
	b := &VectorBuilder{
		fields: make([]string, len(comparisons)),
		comps:  make([]comparators.Comparator, len(comparisons)),
	}
	for i, fc := range comparisons {
		comp, err := comparators.New(fc)
		if err != nil {
			return nil, err
		}
		b.fields[i] = fc.Field
		b.comps[i] = comp
	}
	return b, nil
}

// Len returns the vector length
func (b *VectorBuilder) Len() int { return len(b.comps) }

// Build compares the two records field by field
func (b *VectorBuilder) Build(ra, rb *models.Record) models.SimilarityVector {
	v := make(models.SimilarityVector, len(b.comps))
	for i, comp := range b.comps {
		v[i] = comp.Compare(ra.Field(b.fields[i]), rb.Field(b.fields[i]))
	}
	return v
}
