package compare

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
	"github.com/Ramsey-B/fern/pkg/classify"
	"github.com/Ramsey-B/fern/pkg/engine"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers the ad-hoc comparison route
func Register(g *echo.Group) {
	g.POST("", CompareRecords)
}

// CompareRequest scores one record pair against a config without persisting
// anything. Useful for tuning weights and cutoffs.
type CompareRequest struct {
	RecordA        models.Record            `json:"record_a" validate:"required"`
	RecordB        models.Record            `json:"record_b" validate:"required"`
	Comparisons    []models.FieldComparison `json:"comparisons" validate:"required,min=1"`
	MatchCutoff    float64                  `json:"match_cutoff"`
	PossibleCutoff float64                  `json:"possible_cutoff"`
}

// CompareResponse carries the similarity vector and classification
type CompareResponse struct {
	Fields   []string                `json:"fields"`
	Vector   models.SimilarityVector `json:"vector"`
	Score    float64                 `json:"score"`
	Decision models.Decision         `json:"decision"`
}

// CompareRecords scores a record pair
func CompareRecords(c echo.Context) error {
	ctx := c.Request().Context()
	_ = appcontext.GetTenantID(ctx)

	var req CompareRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Comparisons) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one comparison is required")
	}

	builder, err := engine.NewVectorBuilder(req.Comparisons)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "invalid comparisons: %s", err.Error())
	}
	classifier, err := classify.NewFellegiSunter(req.Comparisons, req.MatchCutoff, req.PossibleCutoff)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "invalid cutoffs: %s", err.Error())
	}

	vector := builder.Build(&req.RecordA, &req.RecordB)
	decision, score := classifier.Classify(vector)

	fields := make([]string, len(req.Comparisons))
	for i, comp := range req.Comparisons {
		fields[i] = comp.Field
	}

	return c.JSON(http.StatusOK, CompareResponse{
		Fields:   fields,
		Vector:   vector,
		Score:    score,
		Decision: decision,
	})
}
