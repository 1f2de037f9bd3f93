package linkageproject

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Repository handles linkage project persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new linkage project repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new linkage project
func (r *Repository) Create(ctx context.Context, tenantID string, req models.CreateLinkageProjectRequest) (*models.LinkageProject, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageproject.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":    "Create",
		"tenant_id": tenantID,
		"name":      req.Name,
	})

	id := uuid.New().String()
	now := time.Now().UTC()

	project := &models.LinkageProject{
		ID:          id,
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
		IsActive:    req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("linkage_projects")
	sb.Cols("id", "tenant_id", "name", "description", "config", "is_active", "created_at", "updated_at")
	sb.Values(project.ID, project.TenantID, project.Name, project.Description, []byte(project.Config), project.IsActive, project.CreatedAt, project.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create linkage project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create linkage project")
	}

	log.WithFields(map[string]any{"id": id}).Info("Created linkage project")
	return project, nil
}

// Get retrieves a linkage project by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.LinkageProject, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageproject.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "name", "description", "config", "is_active", "created_at", "updated_at", "deleted_at")
	sb.From("linkage_projects")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var project models.LinkageProject
	if err := r.db.GetContext(ctx, &project, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("linkage project %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get linkage project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get linkage project")
	}

	return &project, nil
}

// List retrieves all linkage projects for a tenant
func (r *Repository) List(ctx context.Context, tenantID string, page, pageSize int) ([]models.LinkageProject, int, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageproject.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("linkage_projects")
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.IsNull("deleted_at"),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count linkage projects")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count linkage projects")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "name", "description", "config", "is_active", "created_at", "updated_at", "deleted_at")
	sb.From("linkage_projects")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var projects []models.LinkageProject
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list linkage projects")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list linkage projects")
	}

	return projects, totalCount, nil
}

// Update updates a linkage project
func (r *Repository) Update(ctx context.Context, tenantID string, id string, req models.UpdateLinkageProjectRequest) (*models.LinkageProject, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageproject.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.Config != nil {
		existing.Config = req.Config
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("linkage_projects")
	sb.Set(
		sb.Assign("name", existing.Name),
		sb.Assign("description", existing.Description),
		sb.Assign("config", []byte(existing.Config)),
		sb.Assign("is_active", existing.IsActive),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update linkage project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update linkage project")
	}

	return existing, nil
}

// Delete soft deletes a linkage project
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "linkageproject.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("linkage_projects")
	sb.Set(sb.Assign("deleted_at", now))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete linkage project")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete linkage project")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("linkage project %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted linkage project")
	return nil
}
