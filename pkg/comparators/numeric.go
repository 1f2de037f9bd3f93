package comparators

import (
	"math"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// decayScore maps an absolute difference inside [0, window] to a similarity.
// Both curves score 1.0 at zero difference and exactly 0.0 at or beyond the
// window bound.
func decayScore(diff, window float64, curve models.DecayCurve) float64 {
	if diff <= 0 {
		return 1.0
	}
	if diff >= window {
		return 0.0
	}
	if curve == models.DecayExponential {
		// rescaled so the curve reaches zero at the window bound
		const alpha = 3.0
		floor := math.Exp(-alpha)
		return (math.Exp(-alpha*diff/window) - floor) / (1.0 - floor)
	}
	return 1.0 - diff/window
}

type numericComparator struct {
	window float64
	decay  models.DecayCurve
}

func (c numericComparator) Compare(a, b models.FieldValue) float64 {
	na, nb, ok := numberPair(a, b)
	if !ok {
		return models.MissingScore
	}
	return decayScore(math.Abs(na-nb), c.window, c.decay)
}

// percentComparator decays over the difference as a percentage of the larger
// magnitude, with the window given in percent
type percentComparator struct {
	window float64
	decay  models.DecayCurve
}

func (c percentComparator) Compare(a, b models.FieldValue) float64 {
	na, nb, ok := numberPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if na == nb {
		return 1.0
	}
	maxAbs := math.Max(math.Abs(na), math.Abs(nb))
	if maxAbs == 0 {
		return 1.0
	}
	pct := math.Abs(na-nb) / maxAbs * 100.0
	return decayScore(pct, c.window, c.decay)
}

func numberPair(a, b models.FieldValue) (float64, float64, bool) {
	na, ok := asNumber(a)
	if !ok {
		return 0, 0, false
	}
	nb, ok := asNumber(b)
	if !ok {
		return 0, 0, false
	}
	return na, nb, true
}

func asNumber(v models.FieldValue) (float64, bool) {
	switch v.Kind {
	case models.FieldKindNumber:
		return v.Num, true
	case models.FieldKindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// geoComparator scores the haversine distance between two "lat,lon" values
// against a km window. The coordinate pseudo-field is supplied upstream by
// the geocoding collaborator.
type geoComparator struct {
	windowKM float64
	decay    models.DecayCurve
}

func (c geoComparator) Compare(a, b models.FieldValue) float64 {
	latA, lonA, okA := parseCoordinate(a)
	latB, lonB, okB := parseCoordinate(b)
	if !okA || !okB {
		return models.MissingScore
	}
	return decayScore(haversineKM(latA, lonA, latB, lonB), c.windowKM, c.decay)
}

func parseCoordinate(v models.FieldValue) (lat, lon float64, ok bool) {
	if v.Kind != models.FieldKindString {
		return 0, 0, false
	}
	parts := strings.Split(v.Str, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

const earthRadiusKM = 6371.0

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
