package comparators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func mustComparator(t *testing.T, fc models.FieldComparison) Comparator {
	c, err := New(fc)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidConfigurations(t *testing.T) {
	cases := []models.FieldComparison{
		{Field: "name", Comparator: "bogus"},
		{Field: "name", Comparator: models.ComparatorTruncate},
		{Field: "name", Comparator: models.ComparatorQGram, QGramLen: -1},
		{Field: "name", Comparator: models.ComparatorQGram, Coefficient: "cosine"},
		{Field: "age", Comparator: models.ComparatorNumeric},
		{Field: "dob", Comparator: models.ComparatorDate, Tolerance: 30, TransposeScore: 1.5},
		{Field: "loc", Comparator: models.ComparatorGeoDistance},
	}
	for _, fc := range cases {
		_, err := New(fc)
		assert.Error(t, err, "comparator %s should be rejected", fc.Comparator)
	}
}

func TestStringComparators_IdentityAndCommutativity(t *testing.T) {
	kinds := []models.ComparatorType{
		models.ComparatorExact,
		models.ComparatorLevenshtein,
		models.ComparatorQGram,
		models.ComparatorBag,
		models.ComparatorJaro,
		models.ComparatorWinkler,
		models.ComparatorSortedWinkler,
		models.ComparatorPermWinkler,
		models.ComparatorSoundex,
		models.ComparatorMetaphone,
		models.ComparatorDblMetaphone,
		models.ComparatorNYSIIS,
	}
	values := []string{"smith", "smyth", "jonathan", "peter christen", "christen peter", "x"}

	for _, kind := range kinds {
		c := mustComparator(t, models.FieldComparison{Field: "name", Comparator: kind})
		for _, v := range values {
			assert.Equal(t, 1.0, c.Compare(models.StringValue(v), models.StringValue(v)),
				"%s identity on %q", kind, v)
		}
		for _, va := range values {
			for _, vb := range values {
				ab := c.Compare(models.StringValue(va), models.StringValue(vb))
				ba := c.Compare(models.StringValue(vb), models.StringValue(va))
				assert.InDelta(t, ab, ba, 1e-12, "%s not commutative on %q/%q", kind, va, vb)
			}
		}
	}
}

func TestStringComparators_MissingSentinel(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorLevenshtein})

	score := c.Compare(models.Missing, models.StringValue("smith"))
	assert.True(t, models.IsMissingScore(score))

	score = c.Compare(models.StringValue("smith"), models.Missing)
	assert.True(t, models.IsMissingScore(score))

	// both present but different is 0, never the sentinel
	exact := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorExact})
	score = exact.Compare(models.StringValue("smith"), models.StringValue("jones"))
	assert.Equal(t, 0.0, score)
	assert.False(t, models.IsMissingScore(score))
}

func TestLevenshtein_SingleEditName(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorLevenshtein})

	// one insertion over ten characters
	score := c.Compare(models.StringValue("JON SMITH"), models.StringValue("JOHN SMITH"))
	assert.GreaterOrEqual(t, score, 0.8)

	exact := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorExact})
	assert.Equal(t, 0.0, exact.Compare(models.StringValue("JON SMITH"), models.StringValue("JOHN SMITH")))
}

func TestQGram_DiceAndJaccard(t *testing.T) {
	dice := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorQGram, QGramLen: 2})
	jaccard := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorQGram, QGramLen: 2, Coefficient: "jaccard"})

	a := models.StringValue("SMITH")
	b := models.StringValue("SMYTH")

	// bigrams {SM MI IT TH} vs {SM MY YT TH}: 2 common of 4+4
	assert.InDelta(t, 0.5, dice.Compare(a, b), 1e-9)
	assert.InDelta(t, 2.0/6.0, jaccard.Compare(a, b), 1e-9)

	assert.Equal(t, 0.0, dice.Compare(models.StringValue("ab"), models.StringValue("xy")))
}

func TestBagDistance(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorBag})

	// anagrams have zero bag distance
	assert.Equal(t, 1.0, c.Compare(models.StringValue("listen"), models.StringValue("silent")))

	// one substitution: each side has one surplus rune
	score := c.Compare(models.StringValue("smith"), models.StringValue("smyth"))
	assert.InDelta(t, 0.8, score, 1e-9)
}

func TestWinkler_PrefixBoost(t *testing.T) {
	j := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorJaro})
	w := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorWinkler})

	a := models.StringValue("martha")
	b := models.StringValue("marhta")
	assert.Greater(t, w.Compare(a, b), j.Compare(a, b))
}

func TestSortedAndPermutedWinkler(t *testing.T) {
	w := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorWinkler})
	sorted := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorSortedWinkler})
	perm := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorPermWinkler})

	a := models.StringValue("peter christen")
	b := models.StringValue("christen peter")

	assert.Less(t, w.Compare(a, b), 1.0)
	assert.Equal(t, 1.0, sorted.Compare(a, b))
	assert.Equal(t, 1.0, perm.Compare(a, b))
}

func TestPhonetic_EncodingEquality(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorSoundex})

	assert.Equal(t, 1.0, c.Compare(models.StringValue("robert"), models.StringValue("rupert")))
	assert.Equal(t, 0.0, c.Compare(models.StringValue("robert"), models.StringValue("jones")))

	m := mustComparator(t, models.FieldComparison{Field: "name", Comparator: models.ComparatorMetaphone})

	assert.Equal(t, 1.0, m.Compare(models.StringValue("smith"), models.StringValue("smyth")))
	assert.Equal(t, 0.0, m.Compare(models.StringValue("smith"), models.StringValue("jones")))
}

func TestNumeric_DecayCurves(t *testing.T) {
	linear := mustComparator(t, models.FieldComparison{Field: "age", Comparator: models.ComparatorNumeric, Tolerance: 10})
	exp := mustComparator(t, models.FieldComparison{Field: "age", Comparator: models.ComparatorNumeric, Tolerance: 10, Decay: models.DecayExponential})

	for _, c := range []Comparator{linear, exp} {
		assert.Equal(t, 1.0, c.Compare(models.NumberValue(42), models.NumberValue(42)))
		assert.Equal(t, 0.0, c.Compare(models.NumberValue(42), models.NumberValue(52)))
		assert.Equal(t, 0.0, c.Compare(models.NumberValue(42), models.NumberValue(100)))

		mid := c.Compare(models.NumberValue(42), models.NumberValue(47))
		assert.Greater(t, mid, 0.0)
		assert.Less(t, mid, 1.0)
	}

	// exponential drops faster than linear inside the window
	l := linear.Compare(models.NumberValue(0), models.NumberValue(5))
	e := exp.Compare(models.NumberValue(0), models.NumberValue(5))
	assert.Less(t, e, l)

	// numeric strings are accepted; non-numeric strings are missing
	assert.Equal(t, 1.0, linear.Compare(models.StringValue("42"), models.NumberValue(42)))
	assert.True(t, models.IsMissingScore(linear.Compare(models.StringValue("n/a"), models.NumberValue(42))))
}

func TestPercent_RelativeDifference(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "salary", Comparator: models.ComparatorPercent, Tolerance: 20})

	assert.Equal(t, 1.0, c.Compare(models.NumberValue(1000), models.NumberValue(1000)))
	assert.InDelta(t, 0.5, c.Compare(models.NumberValue(1000), models.NumberValue(900)), 1e-9)
	assert.Equal(t, 0.0, c.Compare(models.NumberValue(1000), models.NumberValue(500)))
}

func TestDate_WindowAndTransposition(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "dob", Comparator: models.ComparatorDate, Tolerance: 30})

	day := func(y int, m time.Month, d int) models.FieldValue {
		return models.DateValue(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}

	assert.Equal(t, 1.0, c.Compare(day(1990, time.May, 12), day(1990, time.May, 12)))
	assert.InDelta(t, 0.5, c.Compare(day(1990, time.May, 12), day(1990, time.May, 27)), 1e-9)
	assert.Equal(t, 0.0, c.Compare(day(1990, time.May, 12), day(1991, time.May, 12)))

	t.Run("DayMonthTransposition", func(t *testing.T) {
		// 12 Mar vs 3 Dec differ by far more than the window but only by a
		// component swap
		score := c.Compare(day(1990, time.March, 12), day(1990, time.December, 3))
		assert.Equal(t, 0.5, score)

		custom := mustComparator(t, models.FieldComparison{
			Field: "dob", Comparator: models.ComparatorDate, Tolerance: 30, TransposeScore: 0.7,
		})
		assert.Equal(t, 0.7, custom.Compare(day(1990, time.March, 12), day(1990, time.December, 3)))
	})

	t.Run("StringDatesParsed", func(t *testing.T) {
		assert.Equal(t, 1.0, c.Compare(models.StringValue("1990-05-12"), day(1990, time.May, 12)))
		assert.True(t, models.IsMissingScore(c.Compare(models.StringValue("12/05/1990"), day(1990, time.May, 12))))
	})
}

func TestGeoDistance(t *testing.T) {
	c := mustComparator(t, models.FieldComparison{Field: "location", Comparator: models.ComparatorGeoDistance, Tolerance: 20})

	sydney := models.StringValue("-33.8688,151.2093")
	parramatta := models.StringValue("-33.8150,151.0011") // ~20km apart
	canberra := models.StringValue("-35.2809,149.1300")

	assert.Equal(t, 1.0, c.Compare(sydney, sydney))
	assert.Equal(t, 0.0, c.Compare(sydney, canberra))

	near := c.Compare(sydney, parramatta)
	assert.GreaterOrEqual(t, near, 0.0)
	assert.Less(t, near, 0.5)

	assert.True(t, models.IsMissingScore(c.Compare(sydney, models.StringValue("somewhere"))))
}
