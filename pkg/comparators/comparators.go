package comparators

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Comparator computes a normalized similarity score in [0, 1] between two
// field values, or models.MissingScore when either value is absent. All
// comparators are stateless, commutative, and score identical non-missing
// values as 1.0.
type Comparator interface {
	Compare(a, b models.FieldValue) float64
}

// New builds the comparator for one configured field comparison. Invalid
// combinations fail here, before any records are processed.
func New(fc models.FieldComparison) (Comparator, error) {
	switch fc.Comparator {
	case models.ComparatorExact:
		return exactComparator{}, nil
	case models.ComparatorTruncate:
		if fc.MaxLength <= 0 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive max_length", fc.Comparator, fc.Field)
		}
		return truncateComparator{maxLen: fc.MaxLength}, nil
	case models.ComparatorLevenshtein:
		return levenshteinComparator{}, nil
	case models.ComparatorQGram:
		q := fc.QGramLen
		if q == 0 {
			q = 2
		}
		if q < 1 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive qgram_len", fc.Comparator, fc.Field)
		}
		jaccard := false
		switch fc.Coefficient {
		case "", "dice":
		case "jaccard":
			jaccard = true
		default:
			return nil, fmt.Errorf("comparator %q on field %q has unknown coefficient %q", fc.Comparator, fc.Field, fc.Coefficient)
		}
		return qgramComparator{q: q, jaccard: jaccard}, nil
	case models.ComparatorBag:
		return bagComparator{}, nil
	case models.ComparatorJaro:
		return jaroComparator{}, nil
	case models.ComparatorWinkler:
		return winklerComparator{}, nil
	case models.ComparatorSortedWinkler:
		return sortedWinklerComparator{}, nil
	case models.ComparatorPermWinkler:
		return permWinklerComparator{}, nil
	case models.ComparatorSoundex, models.ComparatorMetaphone, models.ComparatorDblMetaphone, models.ComparatorNYSIIS:
		return newPhoneticComparator(fc.Comparator)
	case models.ComparatorNumeric:
		if fc.Tolerance <= 0 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive tolerance", fc.Comparator, fc.Field)
		}
		return numericComparator{window: fc.Tolerance, decay: decayOrDefault(fc.Decay)}, nil
	case models.ComparatorPercent:
		if fc.Tolerance <= 0 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive tolerance", fc.Comparator, fc.Field)
		}
		return percentComparator{window: fc.Tolerance, decay: decayOrDefault(fc.Decay)}, nil
	case models.ComparatorDate:
		if fc.Tolerance <= 0 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive tolerance in days", fc.Comparator, fc.Field)
		}
		transpose := fc.TransposeScore
		if transpose == 0 {
			transpose = 0.5
		}
		if transpose < 0 || transpose > 1 {
			return nil, fmt.Errorf("comparator %q on field %q requires transpose_score in [0,1]", fc.Comparator, fc.Field)
		}
		return dateComparator{windowDays: fc.Tolerance, decay: decayOrDefault(fc.Decay), transposeScore: transpose}, nil
	case models.ComparatorGeoDistance:
		if fc.Tolerance <= 0 {
			return nil, fmt.Errorf("comparator %q on field %q requires a positive tolerance in km", fc.Comparator, fc.Field)
		}
		return geoComparator{windowKM: fc.Tolerance, decay: decayOrDefault(fc.Decay)}, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q on field %q", fc.Comparator, fc.Field)
	}
}

func decayOrDefault(d models.DecayCurve) models.DecayCurve {
	if d == "" {
		return models.DecayLinear
	}
	return d
}
