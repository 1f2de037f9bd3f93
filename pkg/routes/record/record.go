package record

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
	recordrepo "github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers record routes under a project scope
func Register(g *echo.Group) {
	g.PUT("/projects/:project_id/records", UpsertRecord)
	g.GET("/projects/:project_id/records", ListRecords)
	g.GET("/projects/:project_id/records/:record_id", GetRecord)
	g.DELETE("/projects/:project_id/records/:record_id", DeleteRecord)
}

func sourceParam(c echo.Context) (models.Source, error) {
	switch src := c.QueryParam("source"); src {
	case "", "self":
		return models.SourceSelf, nil
	case "A":
		return models.SourceA, nil
	case "B":
		return models.SourceB, nil
	default:
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown source %q", src)
	}
}

// UpsertRecord stores one standardised record
func UpsertRecord(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	var req models.UpsertRecordRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ProjectID = c.Param("project_id")
	if req.Source == "" {
		req.Source = models.SourceSelf
	}

	if err := utils.Validate(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	stored, err := repo.Upsert(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stored)
}

// GetRecord gets one record by its caller-stable identifier
func GetRecord(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	projectID := c.Param("project_id")
	recordID := c.Param("record_id")
	source, err := sourceParam(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	stored, err := repo.Get(ctx, tenantID, projectID, recordID, source)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stored)
}

// ListRecords lists a project's records
func ListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	projectID := c.Param("project_id")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, total, err := repo.List(ctx, tenantID, projectID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RecordListResponse{
		Items:      records,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// DeleteRecord soft deletes one record
func DeleteRecord(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	projectID := c.Param("project_id")
	recordID := c.Param("record_id")
	source, err := sourceParam(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, tenantID, projectID, recordID, source); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
