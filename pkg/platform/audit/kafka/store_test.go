package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "idvmgt/pkg/platform/audit"
)

type record struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

type fakeProducer struct {
	records []record
	err     error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record{topic, key, value, headers})
	return nil
}

func TestStore_Append(t *testing.T) {
	producer := &fakeProducer{}
	store := New(producer, "idv.audit")

	err := store.Append(context.Background(), audit.Event{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TenantID:  7,
		Subject:   "idvp-1",
		Action:    string(audit.EventProviderCreated),
		ActorID:   "admin",
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "idv.audit", rec.topic)
	_, err = uuid.ParseBytes(rec.key)
	assert.NoError(t, err)
	assert.Equal(t, "security", rec.headers["category"])
	assert.Equal(t, "7", rec.headers["tenant_id"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.value, &body))
	assert.Equal(t, "idvp_created", body["Action"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["Timestamp"])
	assert.Equal(t, float64(7), body["TenantID"])
	assert.NotContains(t, body, "UserID")
}

func TestStore_AppendPropagatesProducerError(t *testing.T) {
	store := New(&fakeProducer{err: errors.New("broker down")}, "idv.audit")
	err := store.Append(context.Background(), audit.Event{Action: "x"})
	assert.ErrorContains(t, err, "broker down")
}
