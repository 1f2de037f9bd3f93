package record

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

// Repository handles standardised record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts a record or replaces the fields of an existing one. The
// caller-stable (project_id, record_id, source) triple identifies a record.
func (r *Repository) Upsert(ctx context.Context, tenantID string, req models.UpsertRecordRequest) (*models.StoredRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":     "Upsert",
		"tenant_id":  tenantID,
		"project_id": req.ProjectID,
		"record_id":  req.RecordID,
	})

	now := time.Now().UTC()
	stored := &models.StoredRecord{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		ProjectID: req.ProjectID,
		RecordID:  req.RecordID,
		Source:    req.Source,
		Fields:    req.Fields,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("records")
	sb.Cols("id", "tenant_id", "project_id", "record_id", "source", "fields", "created_at", "updated_at")
	sb.Values(stored.ID, stored.TenantID, stored.ProjectID, stored.RecordID, stored.Source, []byte(stored.Fields), stored.CreatedAt, stored.UpdatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (tenant_id, project_id, record_id, source) DO UPDATE SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at, deleted_at = NULL"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to upsert record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert record")
	}

	return stored, nil
}

// Get retrieves one record by its caller-stable identifier
func (r *Repository) Get(ctx context.Context, tenantID, projectID, recordID string, source models.Source) (*models.StoredRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "record_id", "source", "fields", "created_at", "updated_at", "deleted_at")
	sb.From("records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("record_id", recordID),
		sb.Equal("source", source),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var stored models.StoredRecord
	if err := r.db.GetContext(ctx, &stored, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("record %s not found", recordID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get record")
	}

	return &stored, nil
}

// List retrieves a page of a project's records
func (r *Repository) List(ctx context.Context, tenantID, projectID string, page, pageSize int) ([]models.StoredRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.List")
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
	countSb.From("records")
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("project_id", projectID),
		countSb.IsNull("deleted_at"),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "record_id", "source", "fields", "created_at", "updated_at", "deleted_at")
	sb.From("records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("source ASC", "record_id ASC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var records []models.StoredRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list records")
	}

	return records, totalCount, nil
}

// ListAll streams every live record of a project for an engine run
func (r *Repository) ListAll(ctx context.Context, tenantID, projectID string) ([]*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "project_id", "record_id", "source", "fields", "created_at", "updated_at", "deleted_at")
	sb.From("records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("source ASC", "record_id ASC")

	query, args := sb.Build()
	var stored []models.StoredRecord
	if err := r.db.SelectContext(ctx, &stored, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}

	records := make([]*models.Record, 0, len(stored))
	for i := range stored {
		rec, err := stored[i].ToRecord()
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"record_id": stored[i].RecordID,
			}).Error("Failed to decode record fields")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode record fields")
		}
		records = append(records, rec)
	}

	return records, nil
}

// Delete soft deletes one record
func (r *Repository) Delete(ctx context.Context, tenantID, projectID, recordID string, source models.Source) error {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("records")
	sb.Set(sb.Assign("deleted_at", now))
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("project_id", projectID),
		sb.Equal("record_id", recordID),
		sb.Equal("source", source),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("record %s not found", recordID))
	}

	return nil
}
