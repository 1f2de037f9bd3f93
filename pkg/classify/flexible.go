package classify

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// CompositeFn folds a similarity vector into one composite value
type CompositeFn string

const (
	CompositeMin  CompositeFn = "min"
	CompositeMax  CompositeFn = "max"
	CompositeAdd  CompositeFn = "add"
	CompositeMult CompositeFn = "mult"
	CompositeAvrg CompositeFn = "avrg"
)

// Flexible is a rule-of-thumb classifier for exploratory runs: it reduces
// the vector with a simple composite function and thresholds the result.
// Missing slots are skipped entirely.
type Flexible struct {
	fn             CompositeFn
	matchCutoff    float64
	possibleCutoff float64
}

func NewFlexible(fn CompositeFn, matchCutoff, possibleCutoff float64) (*Flexible, error) {
	switch fn {
	case CompositeMin, CompositeMax, CompositeAdd, CompositeMult, CompositeAvrg:
	default:
		return nil, fmt.Errorf("unknown composite function %q", fn)
	}
	if possibleCutoff > matchCutoff {
		return nil, fmt.Errorf("possible cutoff %.3f exceeds match cutoff %.3f", possibleCutoff, matchCutoff)
	}
	return &Flexible{fn: fn, matchCutoff: matchCutoff, possibleCutoff: possibleCutoff}, nil
}

func (c *Flexible) Classify(v models.SimilarityVector) (models.Decision, float64) {
	score := c.composite(v)
	switch {
	case score >= c.matchCutoff:
		return models.DecisionMatch, score
	case score >= c.possibleCutoff:
		return models.DecisionPossibleMatch, score
	default:
		return models.DecisionNonMatch, score
	}
}

func (c *Flexible) composite(v models.SimilarityVector) float64 {
	var present []float64
	for _, s := range v {
		if !models.IsMissingScore(s) {
			present = append(present, s)
		}
	}
	if len(present) == 0 {
		return 0.0
	}

	switch c.fn {
	case CompositeMin:
		out := present[0]
		for _, s := range present[1:] {
			if s < out {
				out = s
			}
		}
		return out
	case CompositeMax:
		out := present[0]
		for _, s := range present[1:] {
			if s > out {
				out = s
			}
		}
		return out
	case CompositeMult:
		out := 1.0
		for _, s := range present {
			out *= s
		}
		return out
	case CompositeAvrg:
		sum := 0.0
		for _, s := range present {
			sum += s
		}
		return sum / float64(len(present))
	default: // add
		sum := 0.0
		for _, s := range present {
			sum += s
		}
		return sum
	}
}
