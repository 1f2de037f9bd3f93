package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func twoFieldComparisons() []models.FieldComparison {
	return []models.FieldComparison{
		{Field: "surname", Comparator: models.ComparatorWinkler, AgreeWeight: 4, DisagreeWeight: -3, AgreeThreshold: 0.8},
		{Field: "dob", Comparator: models.ComparatorDate, AgreeWeight: 5, DisagreeWeight: -4, AgreeThreshold: 0.9},
	}
}

func TestNewFellegiSunter_Validation(t *testing.T) {
	_, err := NewFellegiSunter(nil, 5, 0)
	assert.Error(t, err)

	_, err = NewFellegiSunter(twoFieldComparisons(), 0, 5)
	assert.Error(t, err)

	bad := twoFieldComparisons()
	bad[0].AgreeWeight = 0
	bad[0].DisagreeWeight = 0
	_, err = NewFellegiSunter(bad, 5, 0)
	assert.Error(t, err)

	bad = twoFieldComparisons()
	bad[1].AgreeThreshold = 1.5
	_, err = NewFellegiSunter(bad, 5, 0)
	assert.Error(t, err)
}

func TestFellegiSunter_Classify(t *testing.T) {
	c, err := NewFellegiSunter(twoFieldComparisons(), 5, 0)
	require.NoError(t, err)

	t.Run("BothAgree", func(t *testing.T) {
		d, score := c.Classify(models.SimilarityVector{0.95, 1.0})
		assert.Equal(t, models.DecisionMatch, d)
		assert.Equal(t, 9.0, score)
	})

	t.Run("BothDisagree", func(t *testing.T) {
		d, score := c.Classify(models.SimilarityVector{0.1, 0.0})
		assert.Equal(t, models.DecisionNonMatch, d)
		assert.Equal(t, -7.0, score)
	})

	t.Run("MixedLandsInReviewBand", func(t *testing.T) {
		d, score := c.Classify(models.SimilarityVector{0.95, 0.0})
		assert.Equal(t, models.DecisionPossibleMatch, d)
		assert.Equal(t, 0.0, score)
	})

	t.Run("MissingIsNeutral", func(t *testing.T) {
		_, scoreMissing := c.Classify(models.SimilarityVector{0.95, models.MissingScore})
		_, scoreDisagree := c.Classify(models.SimilarityVector{0.95, 0.0})
		assert.Equal(t, 4.0, scoreMissing)
		assert.Greater(t, scoreMissing, scoreDisagree)
	})

	t.Run("Deterministic", func(t *testing.T) {
		v := models.SimilarityVector{0.83, 0.91}
		d1, s1 := c.Classify(v)
		for i := 0; i < 50; i++ {
			d2, s2 := c.Classify(v)
			assert.Equal(t, d1, d2)
			assert.Equal(t, s1, s2)
		}
	})
}

func TestFitEM_SeparatesObviousClasses(t *testing.T) {
	comparisons := twoFieldComparisons()

	// a small population with a clear match minority
	var vectors []models.SimilarityVector
	for i := 0; i < 10; i++ {
		vectors = append(vectors, models.SimilarityVector{0.95, 1.0})
	}
	for i := 0; i < 90; i++ {
		vectors = append(vectors, models.SimilarityVector{0.1, 0.0})
	}

	model, err := FitEM(vectors, comparisons, DefaultEMOptions())
	require.NoError(t, err)

	for i := range comparisons {
		assert.Greater(t, model.M[i], model.U[i], "field %d: match class should agree more often", i)
	}
	assert.InDelta(t, 0.1, model.Prior, 0.05)

	assert.Greater(t, model.Posterior(models.SimilarityVector{0.95, 1.0}), 0.9)
	assert.Less(t, model.Posterior(models.SimilarityVector{0.1, 0.0}), 0.1)

	agree, disagree := model.Weights()
	for i := range agree {
		assert.Greater(t, agree[i], 0.0)
		assert.Less(t, disagree[i], 0.0)
	}
}

func TestEMClassifier(t *testing.T) {
	comparisons := twoFieldComparisons()
	var vectors []models.SimilarityVector
	for i := 0; i < 5; i++ {
		vectors = append(vectors, models.SimilarityVector{1.0, 1.0})
	}
	for i := 0; i < 45; i++ {
		vectors = append(vectors, models.SimilarityVector{0.0, 0.0})
	}

	model, err := FitEM(vectors, comparisons, DefaultEMOptions())
	require.NoError(t, err)

	c, err := NewEMClassifier(model, 0.9, 0.3)
	require.NoError(t, err)

	d, p := c.Classify(models.SimilarityVector{1.0, 1.0})
	assert.Equal(t, models.DecisionMatch, d)
	assert.Greater(t, p, 0.9)

	d, _ = c.Classify(models.SimilarityVector{0.0, 0.0})
	assert.Equal(t, models.DecisionNonMatch, d)

	_, err = NewEMClassifier(nil, 0.9, 0.3)
	assert.Error(t, err)
	_, err = NewEMClassifier(model, 0.3, 0.9)
	assert.Error(t, err)
}

func TestNearestCentroid(t *testing.T) {
	examples := []TrainingExample{
		{Vector: models.SimilarityVector{0.95, 1.0}, Decision: models.DecisionMatch},
		{Vector: models.SimilarityVector{0.9, 0.85}, Decision: models.DecisionMatch},
		{Vector: models.SimilarityVector{0.1, 0.0}, Decision: models.DecisionNonMatch},
		{Vector: models.SimilarityVector{0.2, 0.1}, Decision: models.DecisionNonMatch},
	}

	c, err := FitNearestCentroid(examples, 2, 0.05)
	require.NoError(t, err)

	d, score := c.Classify(models.SimilarityVector{0.92, 0.9})
	assert.Equal(t, models.DecisionMatch, d)
	assert.Greater(t, score, 0.0)

	d, _ = c.Classify(models.SimilarityVector{0.15, 0.05})
	assert.Equal(t, models.DecisionNonMatch, d)

	d, _ = c.Classify(models.SimilarityVector{0.55, models.MissingScore})
	assert.Equal(t, models.DecisionPossibleMatch, d)

	t.Run("RequiresBothClasses", func(t *testing.T) {
		_, err := FitNearestCentroid(examples[:2], 2, 0.05)
		assert.Error(t, err)
	})
}

func TestFlexible(t *testing.T) {
	v := models.SimilarityVector{0.8, 0.4, models.MissingScore}

	cases := []struct {
		fn       CompositeFn
		expected float64
	}{
		{CompositeMin, 0.4},
		{CompositeMax, 0.8},
		{CompositeAdd, 1.2},
		{CompositeMult, 0.32},
		{CompositeAvrg, 0.6},
	}
	for _, tc := range cases {
		c, err := NewFlexible(tc.fn, 2.0, 1.0)
		require.NoError(t, err)
		_, score := c.Classify(v)
		assert.InDelta(t, tc.expected, score, 1e-9, "composite %s", tc.fn)
	}

	_, err := NewFlexible("median", 1, 0)
	assert.Error(t, err)
}
