// Package processor ingests standardised records from the input topic
package processor

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

// RecordProcessor applies record ingestion messages to the record store
type RecordProcessor struct {
	records *record.Repository
	logger  ectologger.Logger
}

// NewRecordProcessor creates a new record processor
func NewRecordProcessor(records *record.Repository, logger ectologger.Logger) *RecordProcessor {
	return &RecordProcessor{
		records: records,
		logger:  logger,
	}
}

// Handle is the consumer MessageHandler. A malformed payload is logged and
// dropped; a storage failure is returned so the message is redelivered.
func (p *RecordProcessor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.RecordProcessor.Handle")
	defer span.End()

	rec, err := msg.ParseRecordMessage()
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("Dropping malformed record message")
		return nil
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  rec.TenantID,
		"project_id": rec.ProjectID,
		"record_id":  rec.RecordID,
		"source":     rec.Source,
	})

	if rec.Deleted {
		err := p.records.Delete(ctx, rec.TenantID, rec.ProjectID, rec.RecordID, rec.Source)
		if err != nil {
			// A delete for a record we never stored is not retryable
			if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
				log.Warn("Ignoring delete for unknown record")
				return nil
			}
			log.WithError(err).Error("Failed to delete ingested record")
			return err
		}
		log.Debug("Deleted record from ingestion message")
		return nil
	}

	_, err = p.records.Upsert(ctx, rec.TenantID, models.UpsertRecordRequest{
		ProjectID: rec.ProjectID,
		RecordID:  rec.RecordID,
		Source:    rec.Source,
		Fields:    rec.Fields,
	})
	if err != nil {
		log.WithError(err).Error("Failed to upsert ingested record")
		return err
	}

	log.Debug("Upserted record from ingestion message")
	return nil
}
