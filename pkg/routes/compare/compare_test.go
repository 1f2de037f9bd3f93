package compare

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

func postCompare(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	Register(e.Group("/api/v1/compare"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCompareRecords(t *testing.T) {
	body := `{
		"record_a": {"id": "a1", "source": "A", "fields": {"name": {"kind": "string", "str": "jonathon"}}},
		"record_b": {"id": "b1", "source": "B", "fields": {"name": {"kind": "string", "str": "jonathan"}}},
		"comparisons": [
			{"field": "name", "comparator": "winkler", "agree_weight": 2, "disagree_weight": -2, "agree_threshold": 0.8}
		],
		"match_cutoff": 1.0,
		"possible_cutoff": 0.0
	}`

	rec := postCompare(t, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Vector, 1)
	assert.Equal(t, []string{"name"}, resp.Fields)
	assert.Greater(t, resp.Vector[0], 0.9)
	assert.Equal(t, models.DecisionMatch, resp.Decision)
}

func TestCompareRecordsMissingField(t *testing.T) {
	body := `{
		"record_a": {"id": "a1", "source": "A", "fields": {"name": {"kind": "string", "str": "ann"}}},
		"record_b": {"id": "b1", "source": "B", "fields": {}},
		"comparisons": [
			{"field": "name", "comparator": "exact", "agree_weight": 2, "disagree_weight": -2}
		],
		"match_cutoff": 1.0,
		"possible_cutoff": -1.0
	}`

	rec := postCompare(t, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Vector, 1)
	assert.True(t, models.IsMissingScore(resp.Vector[0]))
	assert.Equal(t, 0.0, resp.Score, "missing comparison contributes no weight")
}

func TestCompareRecordsBadComparator(t *testing.T) {
	body := `{
		"record_a": {"id": "a1", "source": "A", "fields": {}},
		"record_b": {"id": "b1", "source": "B", "fields": {}},
		"comparisons": [{"field": "name", "comparator": "sounds_like"}]
	}`

	rec := postCompare(t, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCompareRecordsEmptyComparisons(t *testing.T) {
	rec := postCompare(t, `{"record_a": {"id": "a"}, "record_b": {"id": "b"}, "comparisons": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
