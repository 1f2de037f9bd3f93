package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// IncomingMessage is one consumed Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// RecordMessage is the ingestion payload for one standardised record
type RecordMessage struct {
	TenantID  string          `json:"tenant_id"`
	ProjectID string          `json:"project_id"`
	RecordID  string          `json:"record_id"`
	Source    models.Source   `json:"source"`
	Fields    json.RawMessage `json:"fields"`
	Deleted   bool            `json:"deleted,omitempty"`
}

// ParseRecordMessage decodes and validates a record ingestion payload
func (m *IncomingMessage) ParseRecordMessage() (*RecordMessage, error) {
	var rec RecordMessage
	if err := json.Unmarshal(m.Value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record message: %w", err)
	}
	if rec.TenantID == "" || rec.ProjectID == "" || rec.RecordID == "" {
		return nil, fmt.Errorf("record message missing tenant_id, project_id or record_id")
	}
	switch rec.Source {
	case models.SourceA, models.SourceB, models.SourceSelf:
	case "":
		rec.Source = models.SourceSelf
	default:
		return nil, fmt.Errorf("record message has unknown source %q", rec.Source)
	}
	return &rec, nil
}
