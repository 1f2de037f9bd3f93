package run

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
	"github.com/Ramsey-B/fern/internal/repositories/linkagerun"
	"github.com/Ramsey-B/fern/pkg/linkage"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers linkage run routes
func Register(g *echo.Group) {
	g.POST("/projects/:project_id/runs", StartRun)
	g.GET("/projects/:project_id/runs", ListRuns)
	g.GET("/runs/:id", GetRun)
	g.POST("/runs/:id/cancel", CancelRun)
	g.GET("/runs/:id/links", ListRunLinks)
	g.GET("/runs/:id/skipped-blocks", ListRunSkippedBlocks)
}

// StartRun executes a project and returns the finished run
func StartRun(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	projectID := c.Param("project_id")

	ctx, svc, err := ectoinject.GetContext[*linkage.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := svc.StartRun(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, run)
}

// GetRun gets a run by ID
func GetRun(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*linkagerun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}

// CancelRun aborts an in-flight run
func CancelRun(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*linkage.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := svc.Cancel(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, run)
}

// ListRuns lists a project's runs, newest first
func ListRuns(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	projectID := c.Param("project_id")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*linkagerun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	runs, total, err := repo.ListByProject(ctx, tenantID, projectID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.LinkageRunListResponse{
		Items:      runs,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// ListRunLinks lists the accepted links of a run
func ListRunLinks(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*linkagerun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	links, total, err := repo.ListLinks(ctx, tenantID, id, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.LinkResultListResponse{
		Items:      links,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// ListRunSkippedBlocks lists the blocks a run skipped or failed on
func ListRunSkippedBlocks(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*linkagerun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	blocks, total, err := repo.ListSkippedBlocks(ctx, tenantID, id, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.SkippedBlockListResponse{
		Items:      blocks,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}
