package classify

import (
	"fmt"
	"math"

	"github.com/Ramsey-B/fern/pkg/models"
)

// TrainingExample is one labeled similarity vector
type TrainingExample struct {
	Vector   models.SimilarityVector
	Decision models.Decision
}

// NearestCentroid is the supervised classifier: it holds the centroid of the
// labeled match and non-match vectors and assigns new vectors to the closer
// class. Vectors inside the margin band between the two classes come back as
// possible matches.
type NearestCentroid struct {
	match    []float64
	nonMatch []float64
	margin   float64
}

// FitNearestCentroid computes per-class centroids from labeled examples.
// Missing slots are left out of the per-dimension means. PossibleMatch
// labels are ignored during the fit; both remaining classes must be present.
func FitNearestCentroid(examples []TrainingExample, fieldCount int, margin float64) (*NearestCentroid, error) {
	if fieldCount <= 0 {
		return nil, fmt.Errorf("nearest-centroid fit requires a positive field count")
	}
	if margin < 0 {
		return nil, fmt.Errorf("nearest-centroid margin cannot be negative")
	}

	sums := map[models.Decision][]float64{
		models.DecisionMatch:    make([]float64, fieldCount),
		models.DecisionNonMatch: make([]float64, fieldCount),
	}
	counts := map[models.Decision][]float64{
		models.DecisionMatch:    make([]float64, fieldCount),
		models.DecisionNonMatch: make([]float64, fieldCount),
	}

	for _, ex := range examples {
		sum, ok := sums[ex.Decision]
		if !ok {
			continue
		}
		cnt := counts[ex.Decision]
		for i := 0; i < fieldCount && i < len(ex.Vector); i++ {
			if models.IsMissingScore(ex.Vector[i]) {
				continue
			}
			sum[i] += ex.Vector[i]
			cnt[i]++
		}
	}

	centroid := func(d models.Decision, fallback float64) ([]float64, bool) {
		c := make([]float64, fieldCount)
		any := false
		for i := 0; i < fieldCount; i++ {
			if counts[d][i] > 0 {
				c[i] = sums[d][i] / counts[d][i]
				any = true
			} else {
				c[i] = fallback
			}
		}
		return c, any
	}

	match, okM := centroid(models.DecisionMatch, 1.0)
	nonMatch, okN := centroid(models.DecisionNonMatch, 0.0)
	if !okM || !okN {
		return nil, fmt.Errorf("nearest-centroid fit requires labeled match and non-match examples")
	}
	return &NearestCentroid{match: match, nonMatch: nonMatch, margin: margin}, nil
}

// Classify scores a vector by how much closer it sits to the match centroid
// than to the non-match centroid
func (c *NearestCentroid) Classify(v models.SimilarityVector) (models.Decision, float64) {
	dMatch := c.distance(v, c.match)
	dNon := c.distance(v, c.nonMatch)
	score := dNon - dMatch

	switch {
	case score > c.margin:
		return models.DecisionMatch, score
	case score >= -c.margin:
		return models.DecisionPossibleMatch, score
	default:
		return models.DecisionNonMatch, score
	}
}

// distance is euclidean over the non-missing slots, normalized by the number
// of slots actually compared so sparse vectors are not rewarded
func (c *NearestCentroid) distance(v models.SimilarityVector, centroid []float64) float64 {
	sum := 0.0
	seen := 0
	for i := 0; i < len(centroid) && i < len(v); i++ {
		if models.IsMissingScore(v[i]) {
			continue
		}
		d := v[i] - centroid[i]
		sum += d * d
		seen++
	}
	if seen == 0 {
		return math.Sqrt(float64(len(centroid)))
	}
	return math.Sqrt(sum / float64(seen))
}
