// Package events emits linkage run lifecycle and link events
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeRunStarted   EventType = "run.started"
	EventTypeRunCompleted EventType = "run.completed"
	EventTypeRunFailed    EventType = "run.failed"
	EventTypeLinkCreated  EventType = "link.created"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// RunEvent is emitted on run lifecycle transitions
type RunEvent struct {
	BaseEvent
	RunID         string           `json:"run_id"`
	ProjectID     string           `json:"project_id"`
	Status        models.RunStatus `json:"status"`
	RecordCount   int              `json:"record_count,omitempty"`
	PairCount     int              `json:"pair_count,omitempty"`
	LinkCount     int              `json:"link_count,omitempty"`
	ClusterCount  int              `json:"cluster_count,omitempty"`
	SkippedBlocks int              `json:"skipped_blocks,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// LinkEvent is emitted for each accepted link of a completed run
type LinkEvent struct {
	BaseEvent
	RunID     string          `json:"run_id"`
	ProjectID string          `json:"project_id"`
	AID       string          `json:"a_id"`
	BID       string          `json:"b_id"`
	Score     float64         `json:"score"`
	Decision  models.Decision `json:"decision"`
	ClusterID string          `json:"cluster_id,omitempty"`
}

// Emitter publishes linkage events. A nil producer disables emission so
// callers never need to branch on whether Kafka is configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunEvent emits one run lifecycle event
func (e *Emitter) EmitRunEvent(ctx context.Context, eventType EventType, run *models.LinkageRun) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunEvent")
	defer span.End()

	event := RunEvent{
		BaseEvent: BaseEvent{
			EventType:     eventType,
			SchemaVersion: SchemaVersion,
			TenantID:      run.TenantID,
			Timestamp:     time.Now().UTC(),
		},
		RunID:         run.ID,
		ProjectID:     run.ProjectID,
		Status:        run.Status,
		RecordCount:   run.RecordCount,
		PairCount:     run.PairCount,
		LinkCount:     run.LinkCount,
		ClusterCount:  run.ClusterCount,
		SkippedBlocks: run.SkippedBlocks,
	}
	if run.Error != nil {
		event.Error = *run.Error
	}

	err := e.producer.Publish(ctx, run.ID, event, map[string]string{
		"event_type":     string(eventType),
		"tenant_id":      run.TenantID,
		"schema_version": SchemaVersion,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}
	return nil
}

// EmitLinks emits link.created events for a run's accepted links in one batch
func (e *Emitter) EmitLinks(ctx context.Context, run *models.LinkageRun, links []models.LinkResult) error {
	if e == nil || e.producer == nil || len(links) == 0 {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLinks")
	defer span.End()

	msgs := make([]kafka.OutgoingMessage, len(links))
	for i, link := range links {
		event := LinkEvent{
			BaseEvent: BaseEvent{
				EventType:     EventTypeLinkCreated,
				SchemaVersion: SchemaVersion,
				TenantID:      run.TenantID,
				Timestamp:     time.Now().UTC(),
			},
			RunID:     run.ID,
			ProjectID: run.ProjectID,
			AID:       link.AID,
			BID:       link.BID,
			Score:     link.Score,
			Decision:  link.Decision,
		}
		if link.ClusterID != nil {
			event.ClusterID = *link.ClusterID
		}
		msgs[i] = kafka.OutgoingMessage{
			Key:   run.ID,
			Value: event,
			Headers: map[string]string{
				"event_type":     string(EventTypeLinkCreated),
				"tenant_id":      run.TenantID,
				"schema_version": SchemaVersion,
			},
		}
	}

	if err := e.producer.PublishBatch(ctx, msgs); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit link.created events")
		return err
	}
	return nil
}
