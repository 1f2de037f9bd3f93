package run

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMountsRunRoutes(t *testing.T) {
	e := echo.New()
	Register(e.Group("/api/v1"))

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		http.MethodPost + " /api/v1/projects/:project_id/runs",
		http.MethodGet + " /api/v1/projects/:project_id/runs",
		http.MethodGet + " /api/v1/runs/:id",
		http.MethodPost + " /api/v1/runs/:id/cancel",
		http.MethodGet + " /api/v1/runs/:id/links",
		http.MethodGet + " /api/v1/runs/:id/skipped-blocks",
	} {
		assert.True(t, registered[route], route)
	}
}
