package models

import (
	"encoding/json"
	"time"
)

// RunStatus tracks a linkage run's lifecycle
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// LinkageRun is one persisted execution of a project
type LinkageRun struct {
	ID            string     `json:"id" db:"id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	ProjectID     string     `json:"project_id" db:"project_id"`
	Status        RunStatus  `json:"status" db:"status"`
	Mode          string     `json:"mode" db:"mode"`
	RecordCount   int        `json:"record_count" db:"record_count"`
	PairCount     int        `json:"pair_count" db:"pair_count"`
	LinkCount     int        `json:"link_count" db:"link_count"`
	ClusterCount  int        `json:"cluster_count" db:"cluster_count"`
	SkippedBlocks int        `json:"skipped_blocks" db:"skipped_blocks"`
	Error         *string    `json:"error,omitempty" db:"error"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// LinkResult is one accepted link (or cluster membership edge) from a run
type LinkResult struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	RunID     string    `json:"run_id" db:"run_id"`
	AID       string    `json:"a_id" db:"a_id"`
	BID       string    `json:"b_id" db:"b_id"`
	Score     float64   `json:"score" db:"score"`
	Decision  Decision  `json:"decision" db:"decision"`
	ClusterID *string   `json:"cluster_id,omitempty" db:"cluster_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SkippedBlockRecord persists one skipped block report for a run
type SkippedBlockRecord struct {
	ID        string          `json:"id" db:"id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	RunID     string          `json:"run_id" db:"run_id"`
	BlockKey  string          `json:"block_key" db:"block_key"`
	Reason    string          `json:"reason" db:"reason"`
	RecordIDs json.RawMessage `json:"record_ids" db:"record_ids"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LinkageRunListResponse is the response for listing runs
type LinkageRunListResponse struct {
	Items      []LinkageRun `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}

// LinkResultListResponse is the response for listing a run's links
type LinkResultListResponse struct {
	Items      []LinkResult `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}

// SkippedBlockListResponse is the response for listing a run's skipped blocks
type SkippedBlockListResponse struct {
	Items      []SkippedBlockRecord `json:"items"`
	TotalCount int                  `json:"total_count"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}
