package classify

import (
	"fmt"
	"math"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EMOptions tunes the unsupervised mixture fit
type EMOptions struct {
	MaxIterations int     // fallback cap when the likelihood oscillates
	Epsilon       float64 // log-likelihood delta considered converged
	InitialM      float64 // starting per-field agreement probability, match class
	InitialU      float64 // starting per-field agreement probability, non-match class
	InitialPrior  float64 // starting match-class proportion
}

// DefaultEMOptions mirrors the usual starting point for person data
func DefaultEMOptions() EMOptions {
	return EMOptions{
		MaxIterations: 100,
		Epsilon:       1e-6,
		InitialM:      0.9,
		InitialU:      0.1,
		InitialPrior:  0.1,
	}
}

// EMModel holds the fitted two-class mixture: per-field agreement
// probabilities under the match class (m) and non-match class (u), plus the
// match-class prior
type EMModel struct {
	M          []float64
	U          []float64
	Prior      float64
	Iterations int
	thresholds []float64
}

// probability floor keeping log odds finite
const probFloor = 1e-5

// FitEM estimates the mixture from unlabeled similarity vectors. Each vector
// slot is reduced to agree/disagree against the field's agreement threshold;
// missing slots carry no evidence in either direction.
func FitEM(vectors []models.SimilarityVector, comparisons []models.FieldComparison, opts EMOptions) (*EMModel, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("EM fit requires at least one similarity vector")
	}
	if len(comparisons) == 0 {
		return nil, fmt.Errorf("EM fit requires at least one field comparison")
	}
	if opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("EM fit requires a positive iteration cap")
	}

	n := len(comparisons)
	thresholds := make([]float64, n)
	for i, fc := range comparisons {
		thresholds[i] = fc.AgreeThreshold
	}

	model := &EMModel{
		M:          make([]float64, n),
		U:          make([]float64, n),
		Prior:      clampProb(opts.InitialPrior),
		thresholds: thresholds,
	}
	for i := 0; i < n; i++ {
		model.M[i] = clampProb(opts.InitialM)
		model.U[i] = clampProb(opts.InitialU)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		model.Iterations = iter + 1

		// E-step: posterior match probability per vector
		ll := 0.0
		posteriors := make([]float64, len(vectors))
		for vi, v := range vectors {
			pm, pu := model.likelihoods(v)
			total := model.Prior*pm + (1-model.Prior)*pu
			posteriors[vi] = model.Prior * pm / total
			ll += math.Log(total)
		}

		// M-step: re-estimate per-field agreement rates under each class
		sumW := 0.0
		mAgree := make([]float64, n)
		mSeen := make([]float64, n)
		uAgree := make([]float64, n)
		uSeen := make([]float64, n)
		for vi, v := range vectors {
			w := posteriors[vi]
			sumW += w
			for i := 0; i < n && i < len(v); i++ {
				if models.IsMissingScore(v[i]) {
					continue
				}
				mSeen[i] += w
				uSeen[i] += 1 - w
				if v[i] >= thresholds[i] {
					mAgree[i] += w
					uAgree[i] += 1 - w
				}
			}
		}
		model.Prior = clampProb(sumW / float64(len(vectors)))
		for i := 0; i < n; i++ {
			if mSeen[i] > 0 {
				model.M[i] = clampProb(mAgree[i] / mSeen[i])
			}
			if uSeen[i] > 0 {
				model.U[i] = clampProb(uAgree[i] / uSeen[i])
			}
		}

		if math.Abs(ll-prevLL) < opts.Epsilon {
			break
		}
		prevLL = ll
	}
	return model, nil
}

// likelihoods returns the vector's probability under each class
func (m *EMModel) likelihoods(v models.SimilarityVector) (pm, pu float64) {
	pm, pu = 1.0, 1.0
	for i := 0; i < len(m.M) && i < len(v); i++ {
		if models.IsMissingScore(v[i]) {
			continue
		}
		if v[i] >= m.thresholds[i] {
			pm *= m.M[i]
			pu *= m.U[i]
		} else {
			pm *= 1 - m.M[i]
			pu *= 1 - m.U[i]
		}
	}
	return pm, pu
}

// Posterior returns the probability that the vector belongs to the match
// class
func (m *EMModel) Posterior(v models.SimilarityVector) float64 {
	pm, pu := m.likelihoods(v)
	return m.Prior * pm / (m.Prior*pm + (1-m.Prior)*pu)
}

// Weights converts the fitted probabilities into the classic per-field
// agreement/disagreement log odds
func (m *EMModel) Weights() (agree, disagree []float64) {
	agree = make([]float64, len(m.M))
	disagree = make([]float64, len(m.M))
	for i := range m.M {
		agree[i] = math.Log2(m.M[i] / m.U[i])
		disagree[i] = math.Log2((1 - m.M[i]) / (1 - m.U[i]))
	}
	return agree, disagree
}

func clampProb(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > 1-probFloor {
		return 1 - probFloor
	}
	return p
}

// EMClassifier thresholds the fitted posterior. Cutoffs live on the [0,1]
// posterior axis rather than the weight-sum axis.
type EMClassifier struct {
	Model          *EMModel
	MatchCutoff    float64
	PossibleCutoff float64
}

// NewEMClassifier validates the posterior cutoffs
func NewEMClassifier(model *EMModel, matchCutoff, possibleCutoff float64) (*EMClassifier, error) {
	if model == nil {
		return nil, fmt.Errorf("EM classifier requires a fitted model")
	}
	if possibleCutoff > matchCutoff {
		return nil, fmt.Errorf("possible cutoff %.3f exceeds match cutoff %.3f", possibleCutoff, matchCutoff)
	}
	if matchCutoff < 0 || matchCutoff > 1 || possibleCutoff < 0 {
		return nil, fmt.Errorf("posterior cutoffs must lie in [0,1]")
	}
	return &EMClassifier{Model: model, MatchCutoff: matchCutoff, PossibleCutoff: possibleCutoff}, nil
}

func (c *EMClassifier) Classify(v models.SimilarityVector) (models.Decision, float64) {
	p := c.Model.Posterior(v)
	switch {
	case p >= c.MatchCutoff:
		return models.DecisionMatch, p
	case p >= c.PossibleCutoff:
		return models.DecisionPossibleMatch, p
	default:
		return models.DecisionNonMatch, p
	}
}
