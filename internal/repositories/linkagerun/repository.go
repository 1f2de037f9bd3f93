package linkagerun

import (
	"context"
	"encoding/json"
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

// Repository handles linkage run and link result persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new linkage run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records a new pending run for a project
func (r *Repository) Create(ctx context.Context, tenantID, projectID, mode string) (*models.LinkageRun, error) {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "Create",
		"tenant_id":  tenantID,
		"project_id": projectID,
	})

	now := time.Now().UTC()
	run := &models.LinkageRun{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		ProjectID: projectID,
		Status:    models.RunStatusPending,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("linkage_runs")
	sb.Cols("id", "tenant_id", "project_id", "status", "mode", "created_at", "updated_at")
	sb.Values(run.ID, run.TenantID, run.ProjectID, run.Status, run.Mode, run.CreatedAt, run.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create linkage run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create linkage run")
	}

	log.WithFields(map[string]any{"run_id": run.ID}).Info("Created linkage run")
	return run, nil
}

// Get retrieves a run by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.LinkageRun, error) {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "status", "mode", "record_count", "pair_count", "link_count", "cluster_count", "skipped_blocks", "error", "started_at", "completed_at", "created_at", "updated_at")
	sb.From("linkage_runs")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var run models.LinkageRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("linkage run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get linkage run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get linkage run")
	}

	return &run, nil
}

// ListByProject retrieves runs for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID string, page, pageSize int) ([]models.LinkageRun, int, error) {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.ListByProject")
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
	countSb.From("linkage_runs")
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("project_id", projectID),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count linkage runs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count linkage runs")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "status", "mode", "record_count", "pair_count", "link_count", "cluster_count", "skipped_blocks", "error", "started_at", "completed_at", "created_at", "updated_at")
	sb.From("linkage_runs")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var runs []models.LinkageRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list linkage runs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list linkage runs")
	}

	return runs, totalCount, nil
}

// SetRunning marks a run as started
func (r *Repository) SetRunning(ctx context.Context, tenantID, id string, recordCount int) error {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.SetRunning")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("linkage_runs")
	sb.Set(
		sb.Assign("status", models.RunStatusRunning),
		sb.Assign("record_count", recordCount),
		sb.Assign("started_at", now),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark linkage run running")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update linkage run")
	}
	return nil
}

// Complete marks a run as finished with its counters
func (r *Repository) Complete(ctx context.Context, tenantID string, run *models.LinkageRun) error {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.Complete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("linkage_runs")
	sb.Set(
		sb.Assign("status", run.Status),
		sb.Assign("pair_count", run.PairCount),
		sb.Assign("link_count", run.LinkCount),
		sb.Assign("cluster_count", run.ClusterCount),
		sb.Assign("skipped_blocks", run.SkippedBlocks),
		sb.Assign("error", run.Error),
		sb.Assign("completed_at", now),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", run.ID),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to complete linkage run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update linkage run")
	}
	return nil
}

// SaveLinks persists the accepted links of a run
func (r *Repository) SaveLinks(ctx context.Context, tenantID, runID string, links []models.LinkResult) error {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.SaveLinks")
	defer span.End()

	if len(links) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("link_results")
	sb.Cols("id", "tenant_id", "run_id", "a_id", "b_id", "score", "decision", "cluster_id", "created_at")
	for _, link := range links {
		id := link.ID
		if id == "" {
			id = uuid.New().String()
		}
		sb.Values(id, tenantID, runID, link.AID, link.BID, link.Score, link.Decision, link.ClusterID, now)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to save link results")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save link results")
	}
	return nil
}

// SaveSkippedBlocks persists skipped block reports for a run
func (r *Repository) SaveSkippedBlocks(ctx context.Context, tenantID, runID string, blocks []models.SkippedBlock) error {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.SaveSkippedBlocks")
	defer span.End()

	if len(blocks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("skipped_blocks")
	sb.Cols("id", "tenant_id", "run_id", "block_key", "reason", "record_ids", "created_at")
	for _, blk := range blocks {
		ids, err := json.Marshal(blk.RecordIDs)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to encode skipped block")
		}
		sb.Values(uuid.New().String(), tenantID, runID, blk.Key, blk.Reason, ids, now)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to save skipped blocks")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save skipped blocks")
	}
	return nil
}

// ListSkippedBlocks retrieves the skipped block reports of a run
func (r *Repository) ListSkippedBlocks(ctx context.Context, tenantID, runID string, page, pageSize int) ([]models.SkippedBlockRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.ListSkippedBlocks")
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
	countSb.From("skipped_blocks")
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("run_id", runID),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count skipped blocks")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count skipped blocks")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "run_id", "block_key", "reason", "record_ids", "created_at")
	sb.From("skipped_blocks")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("run_id", runID),
	)
	sb.OrderBy("block_key ASC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var blocks []models.SkippedBlockRecord
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list skipped blocks")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list skipped blocks")
	}

	return blocks, totalCount, nil
}

// ListLinks retrieves the accepted links of a run
func (r *Repository) ListLinks(ctx context.Context, tenantID, runID string, page, pageSize int) ([]models.LinkResult, int, error) {
	ctx, span := tracing.StartSpan(ctx, "linkagerun.Repository.ListLinks")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("link_results")
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("run_id", runID),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count link results")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count link results")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "run_id", "a_id", "b_id", "score", "decision", "cluster_id", "created_at")
	sb.From("link_results")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("run_id", runID),
	)
	sb.OrderBy("a_id ASC", "b_id ASC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var links []models.LinkResult
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list link results")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list link results")
	}

	return links, totalCount, nil
}
