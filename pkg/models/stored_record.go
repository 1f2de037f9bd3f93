package models

import (
	"encoding/json"
	"time"
)

// StoredRecord is a standardised record as persisted for a project. The
// fields column holds a map[string]FieldValue document.
type StoredRecord struct {
	ID        string          `json:"id" db:"id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	ProjectID string          `json:"project_id" db:"project_id"`
	RecordID  string          `json:"record_id" db:"record_id"` // caller-stable identifier
	Source    Source          `json:"source" db:"source"`
	Fields    json.RawMessage `json:"fields" db:"fields"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ToRecord decodes the stored fields into an engine Record
func (s *StoredRecord) ToRecord() (*Record, error) {
	var fields map[string]FieldValue
	if err := json.Unmarshal(s.Fields, &fields); err != nil {
		return nil, err
	}
	return &Record{ID: s.RecordID, Source: s.Source, Fields: fields}, nil
}

// UpsertRecordRequest is the request to upload one standardised record
type UpsertRecordRequest struct {
	ProjectID string          `json:"project_id" validate:"required"`
	RecordID  string          `json:"record_id" validate:"required"`
	Source    Source          `json:"source" validate:"required,oneof=A B self"`
	Fields    json.RawMessage `json:"fields" validate:"required"`
}

// RecordListResponse is the response for listing a project's records
type RecordListResponse struct {
	Items      []StoredRecord `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
