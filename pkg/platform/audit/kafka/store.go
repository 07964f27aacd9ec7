// Package kafka forwards audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	audit "idvmgt/pkg/platform/audit"
)

// Producer is the subset of the platform producer the store needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Store implements audit.Store by producing one record per event, keyed by event id.
type Store struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Store {
	return &Store{producer: producer, topic: topic}
}

// payload is the JSON structure published to Kafka.
type payload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	TenantID  int    `json:"TenantID"`
	UserID    string `json:"UserID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	body, err := json.Marshal(payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		TenantID:  event.TenantID,
		UserID:    event.UserID,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	headers := map[string]string{
		"category":  string(category),
		"tenant_id": strconv.Itoa(event.TenantID),
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(eventID.String()), body, headers); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
