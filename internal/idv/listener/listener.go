// Package listener keeps claims in step with the user directory. It consumes
// user lifecycle events and drops verification data a change invalidates.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"idvmgt/internal/platform/kafka/consumer"
	platformstrings "idvmgt/pkg/platform/strings"
)

// Event types published by the user directory.
const (
	EventUserCreated      = "user_created"
	EventUserDeleted      = "user_deleted"
	EventUserClaimSet     = "user_claim_set"
	EventUserClaimDeleted = "user_claim_deleted"
)

const (
	resultSuccess   = "success"
	resultError     = "error"
	resultMalformed = "malformed"
	resultIgnored   = "ignored"
)

// Event is the JSON value of a user lifecycle record.
type Event struct {
	Type     string `json:"type"`
	TenantID int    `json:"tenantId"`
	UserID   string `json:"userId"`
	// Claims holds the values set by user_created and user_claim_set.
	Claims map[string]string `json:"claims,omitempty"`
	// ClaimURIs lists the claims removed by user_claim_deleted.
	ClaimURIs []string `json:"claimUris,omitempty"`
}

// ClaimPurger removes verification data without looking the user up.
type ClaimPurger interface {
	DeleteClaimsByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) error
}

// UserProjection is the local copy of the user directory.
type UserProjection interface {
	Upsert(ctx context.Context, tenantID int, userID string, claims map[string]string) error
	DeleteClaims(ctx context.Context, tenantID int, userID string, claimURIs []string) error
	Delete(ctx context.Context, tenantID int, userID string) error
}

// EventRecorder counts handled events.
type EventRecorder interface {
	RecordUserEvent(eventType, result string)
}

// Handler applies user events. Malformed records are logged and committed.
// Store failures are returned so the consumer retries the record.
type Handler struct {
	claims  ClaimPurger
	users   UserProjection
	metrics EventRecorder
	logger  *slog.Logger
}

type Option func(*Handler)

func WithMetrics(m EventRecorder) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(claims ClaimPurger, users UserProjection, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{claims: claims, users: users, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ consumer.Handler = (*Handler)(nil)

func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.WarnContext(ctx, "skipping malformed user event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		h.record("unknown", resultMalformed)
		return nil
	}
	if strings.TrimSpace(ev.UserID) == "" {
		h.logger.WarnContext(ctx, "skipping user event without user id",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"type", ev.Type,
		)
		h.record(ev.Type, resultMalformed)
		return nil
	}

	var err error
	switch ev.Type {
	case EventUserCreated:
		err = h.users.Upsert(ctx, ev.TenantID, ev.UserID, ev.Claims)
	case EventUserDeleted:
		err = h.userDeleted(ctx, ev)
	case EventUserClaimSet:
		err = h.claimsSet(ctx, ev)
	case EventUserClaimDeleted:
		err = h.claimsDeleted(ctx, ev)
	default:
		h.logger.DebugContext(ctx, "ignoring user event", "type", ev.Type, "user_id", ev.UserID)
		h.record(ev.Type, resultIgnored)
		return nil
	}
	if err != nil {
		h.record(ev.Type, resultError)
		return fmt.Errorf("handle %s for user %s: %w", ev.Type, ev.UserID, err)
	}
	h.record(ev.Type, resultSuccess)
	return nil
}

func (h *Handler) userDeleted(ctx context.Context, ev Event) error {
	if err := h.claims.DeleteClaimsByURI(ctx, ev.TenantID, ev.UserID, "", ""); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "removed verification data of deleted user",
		"tenant_id", ev.TenantID, "user_id", ev.UserID)
	return h.users.Delete(ctx, ev.TenantID, ev.UserID)
}

// claimsSet drops verification data of every claim that was set.
func (h *Handler) claimsSet(ctx context.Context, ev Event) error {
	for _, uri := range platformstrings.TrimmedKeys(ev.Claims) {
		if err := h.claims.DeleteClaimsByURI(ctx, ev.TenantID, ev.UserID, "", uri); err != nil {
			return err
		}
	}
	return h.users.Upsert(ctx, ev.TenantID, ev.UserID, ev.Claims)
}

func (h *Handler) claimsDeleted(ctx context.Context, ev Event) error {
	uris := platformstrings.DedupeAndTrim(ev.ClaimURIs)
	for _, uri := range uris {
		if err := h.claims.DeleteClaimsByURI(ctx, ev.TenantID, ev.UserID, "", uri); err != nil {
			return err
		}
	}
	return h.users.DeleteClaims(ctx, ev.TenantID, ev.UserID, uris)
}

func (h *Handler) record(eventType, result string) {
	if h.metrics != nil {
		h.metrics.RecordUserEvent(eventType, result)
	}
}
