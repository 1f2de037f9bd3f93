package models

import (
	"encoding/json"
	"time"
)

// LinkageProject is a persisted linkage/deduplication job definition. The
// config column holds a LinkageConfig document.
type LinkageProject struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Config      json.RawMessage `json:"config" db:"config"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ParseConfig decodes the stored config document
func (p *LinkageProject) ParseConfig() (LinkageConfig, error) {
	var cfg LinkageConfig
	err := json.Unmarshal(p.Config, &cfg)
	return cfg, err
}

// CreateLinkageProjectRequest is the request to create a project
type CreateLinkageProjectRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Config      json.RawMessage `json:"config" validate:"required"`
	IsActive    bool            `json:"is_active"`
}

// UpdateLinkageProjectRequest is the request to update a project
type UpdateLinkageProjectRequest struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// LinkageProjectListResponse is the response for listing projects
type LinkageProjectListResponse struct {
	Items      []LinkageProject `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}
