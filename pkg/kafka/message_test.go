package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestParseRecordMessage(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{
			"tenant_id": "t1",
			"project_id": "p1",
			"record_id": "rec-42",
			"source": "A",
			"fields": {"name": {"kind": "string", "str": "ann"}}
		}`),
	}

	rec, err := msg.ParseRecordMessage()
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.TenantID)
	assert.Equal(t, "p1", rec.ProjectID)
	assert.Equal(t, "rec-42", rec.RecordID)
	assert.Equal(t, models.SourceA, rec.Source)
	assert.False(t, rec.Deleted)
}

func TestParseRecordMessageDefaultsSource(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{"tenant_id": "t1", "project_id": "p1", "record_id": "r1", "fields": {}}`),
	}

	rec, err := msg.ParseRecordMessage()
	require.NoError(t, err)
	assert.Equal(t, models.SourceSelf, rec.Source)
}

func TestParseRecordMessageRejectsBadPayload(t *testing.T) {
	for name, value := range map[string]string{
		"not json":       `{"tenant_id": `,
		"missing ids":    `{"tenant_id": "t1"}`,
		"unknown source": `{"tenant_id": "t1", "project_id": "p1", "record_id": "r1", "source": "C"}`,
	} {
		t.Run(name, func(t *testing.T) {
			msg := &IncomingMessage{Value: []byte(value)}
			_, err := msg.ParseRecordMessage()
			assert.Error(t, err)
		})
	}
}
