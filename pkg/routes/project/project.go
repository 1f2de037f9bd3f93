package project

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/appcontext"
	"github.com/Ramsey-B/fern/internal/repositories/linkageproject"
	"github.com/Ramsey-B/fern/pkg/engine"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Register registers linkage project routes
func Register(g *echo.Group) {
	g.GET("", ListProjects)
	g.GET("/:id", GetProject)
	g.POST("", CreateProject)
	g.PUT("/:id", UpdateProject)
	g.DELETE("/:id", DeleteProject)
}

// ListProjects lists the tenant's linkage projects
func ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*linkageproject.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	projects, total, err := repo.List(ctx, tenantID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.LinkageProjectListResponse{
		Items:      projects,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetProject gets a linkage project by ID
func GetProject(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*linkageproject.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	project, err := repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, project)
}

// validateConfigDocument parses and checks a config document before it is
// stored, so runs never fail on a config that was accepted at write time.
func validateConfigDocument(doc json.RawMessage) error {
	var cfg models.LinkageConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "config is not a valid linkage config document")
	}
	if err := engine.ValidateConfig(cfg); err != nil {
		return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "invalid linkage config: %s", err.Error())
	}
	return nil
}

// CreateProject creates a new linkage project
func CreateProject(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	var req models.CreateLinkageProjectRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := utils.Validate(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateConfigDocument(req.Config); err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*linkageproject.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := repo.Create(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateProject updates a linkage project
func UpdateProject(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")

	var req models.UpdateLinkageProjectRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if len(req.Config) > 0 {
		if err := validateConfigDocument(req.Config); err != nil {
			return err
		}
	}

	ctx, repo, err := ectoinject.GetContext[*linkageproject.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.Update(ctx, tenantID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteProject deletes a linkage project
func DeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*linkageproject.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
