package comparators

import (
	"math"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// dateComparator decays the day-count difference over a window of days.
// A day/month transposition (a common data-entry error) scores a reduced but
// nonzero similarity when the decayed score would be lower.
type dateComparator struct {
	windowDays     float64
	decay          models.DecayCurve
	transposeScore float64
}

func (c dateComparator) Compare(a, b models.FieldValue) float64 {
	da, ok := asDate(a)
	if !ok {
		return models.MissingScore
	}
	db, ok := asDate(b)
	if !ok {
		return models.MissingScore
	}
	if da.Equal(db) {
		return 1.0
	}

	days := math.Abs(da.Sub(db).Hours() / 24.0)
	score := decayScore(days, c.windowDays, c.decay)

	if transposed(da, db) && c.transposeScore > score {
		return c.transposeScore
	}
	return score
}

// transposed reports whether the two dates differ only by swapped day and
// month components
func transposed(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return false
	}
	return int(a.Month()) == b.Day() && a.Day() == int(b.Month()) && a.Day() != int(a.Month())
}

func asDate(v models.FieldValue) (time.Time, bool) {
	switch v.Kind {
	case models.FieldKindDate:
		return v.Date, true
	case models.FieldKindString:
		t, err := time.Parse("2006-01-02", v.Str)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
