// Package classify maps similarity vectors to match decisions
package classify

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Classifier converts one similarity vector into a decision and a composite
// score. Implementations are deterministic: the same vector always yields
// the same output.
type Classifier interface {
	Classify(v models.SimilarityVector) (models.Decision, float64)
}

// FellegiSunter is the weighted-sum classifier. Each field contributes its
// agreement weight when its score reaches the field's agreement threshold
// and its disagreement weight otherwise; missing fields contribute nothing,
// so "unknown" never penalizes the way "known to differ" does.
type FellegiSunter struct {
	fields         []fieldWeights
	matchCutoff    float64
	possibleCutoff float64
}

type fieldWeights struct {
	agree     float64
	disagree  float64
	threshold float64
}

// NewFellegiSunter validates the weight table and cutoffs before any
// processing starts
func NewFellegiSunter(comparisons []models.FieldComparison, matchCutoff, possibleCutoff float64) (*FellegiSunter, error) {
	if len(comparisons) == 0 {
		return nil, fmt.Errorf("classifier requires at least one field comparison")
	}
	if possibleCutoff > matchCutoff {
		return nil, fmt.Errorf("possible cutoff %.3f exceeds match cutoff %.3f", possibleCutoff, matchCutoff)
	}
	fields := make([]fieldWeights, len(comparisons))
	for i, fc := range comparisons {
		if fc.AgreeWeight == 0 && fc.DisagreeWeight == 0 {
			return nil, fmt.Errorf("field %q has an empty weight pair", fc.Field)
		}
		if fc.AgreeThreshold < 0 || fc.AgreeThreshold > 1 {
			return nil, fmt.Errorf("field %q has agree threshold %.3f outside [0,1]", fc.Field, fc.AgreeThreshold)
		}
		fields[i] = fieldWeights{
			agree:     fc.AgreeWeight,
			disagree:  fc.DisagreeWeight,
			threshold: fc.AgreeThreshold,
		}
	}
	return &FellegiSunter{
		fields:         fields,
		matchCutoff:    matchCutoff,
		possibleCutoff: possibleCutoff,
	}, nil
}

func (c *FellegiSunter) Classify(v models.SimilarityVector) (models.Decision, float64) {
	total := 0.0
	for i, fw := range c.fields {
		if i >= len(v) || models.IsMissingScore(v[i]) {
			continue
		}
		if v[i] >= fw.threshold {
			total += fw.agree
		} else {
			total += fw.disagree
		}
	}
	return c.decide(total), total
}

func (c *FellegiSunter) decide(score float64) models.Decision {
	switch {
	case score >= c.matchCutoff:
		return models.DecisionMatch
	case score >= c.possibleCutoff:
		return models.DecisionPossibleMatch
	default:
		return models.DecisionNonMatch
	}
}
