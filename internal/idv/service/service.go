// Package service implements identity verification claim management and
// dispatches verification requests to the registered verifier plugins.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idvmgt/internal/idv/metrics"
	"idvmgt/internal/idv/models"
	"idvmgt/internal/idv/store"
	"idvmgt/internal/idv/store/cached"
	"idvmgt/internal/idv/verifier"
	idvpmodels "idvmgt/internal/idvp/models"
	"idvmgt/internal/platform/cache"
	"idvmgt/internal/platform/registry"
	dErrors "idvmgt/pkg/domain-errors"
	"idvmgt/pkg/platform/audit"
	"idvmgt/pkg/platform/sentinel"
)

// ProviderReader is the part of the provider manager claims depend on.
type ProviderReader interface {
	Exists(ctx context.Context, tenantID int, id string) (bool, error)
	Get(ctx context.Context, tenantID int, id string) (*idvpmodels.Provider, error)
}

// UserDirectory answers whether a user exists in a tenant.
type UserDirectory interface {
	UserExists(ctx context.Context, tenantID int, userID string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Manager is the claim management entry point.
type Manager struct {
	stores         *registry.Registry[store.Store]
	backend        string
	providers      ProviderReader
	users          UserDirectory
	verifiers      *verifier.Registry
	cache          *cache.Cache[*models.Claim]
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Manager) {
		m.auditPublisher = publisher
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithCache puts the given cache in front of the selected store.
func WithCache(c *cache.Cache[*models.Claim]) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// New creates a manager over the claim store registered under backend.
// verifiers may be nil when no plugin is installed.
func New(
	stores *registry.Registry[store.Store],
	backend string,
	providers ProviderReader,
	users UserDirectory,
	verifiers *verifier.Registry,
	opts ...Option,
) *Manager {
	m := &Manager{
		stores:    stores,
		backend:   backend,
		providers: providers,
		users:     users,
		verifiers: verifiers,
		logger:    slog.Default(),
		tracer:    otel.Tracer("idvmgt/idv"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.verifiers == nil {
		m.verifiers = verifier.NewRegistry()
	}
	return m
}

func (m *Manager) store() (store.Store, error) {
	if m.stores == nil || m.stores.Len() == 0 {
		return nil, models.ServerError(models.ReasonNoStore, errors.New("no claim stores registered"))
	}
	st, ok := m.stores.Get(m.backend)
	if !ok {
		return nil, models.ServerError(models.ReasonNoStore, fmt.Errorf("backend %q not registered", m.backend))
	}
	if m.cache != nil {
		return cached.New(st, m.cache, m.logger), nil
	}
	return st, nil
}

func (m *Manager) startSpan(ctx context.Context, name string, tenantID int, userID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "idv."+name, trace.WithAttributes(
		attribute.Int("tenant.id", tenantID),
		attribute.String("user.id", userID),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *Manager) validateUser(ctx context.Context, tenantID int, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return models.ErrInvalidUser(userID)
	}
	ok, err := m.users.UserExists(ctx, tenantID, userID)
	if err != nil {
		return models.ServerError(models.ReasonCheckingUser, err)
	}
	if !ok {
		return models.ErrInvalidUser(userID)
	}
	return nil
}

func (m *Manager) validateProvider(ctx context.Context, tenantID int, providerID string) error {
	if strings.TrimSpace(providerID) == "" {
		return models.ErrInvalidProvider(providerID)
	}
	ok, err := m.providers.Exists(ctx, tenantID, providerID)
	if err != nil {
		return models.ServerError(models.ReasonValidatingProvider, err, providerID)
	}
	if !ok {
		return models.ErrInvalidProvider(providerID)
	}
	return nil
}

// prepareBatch validates claims for userID and returns copies carrying fresh
// UUIDs. When checkStored is set a claim already in the store is a conflict.
func (m *Manager) prepareBatch(ctx context.Context, st store.Store, tenantID int, userID string, claims []*models.Claim, checkStored bool) ([]*models.Claim, error) {
	known := make(map[string]bool)
	seen := make(map[models.ClaimKey]struct{}, len(claims))
	out := make([]*models.Claim, 0, len(claims))
	for _, c := range claims {
		if c == nil {
			return nil, models.ErrInvalidClaimURI("")
		}
		next := c.Clone()
		next.ID = 0
		next.UUID = uuid.NewString()
		next.UserID = userID

		if _, checked := known[next.ProviderID]; !checked {
			if err := m.validateProvider(ctx, tenantID, next.ProviderID); err != nil {
				return nil, err
			}
			known[next.ProviderID] = true
		}
		if strings.TrimSpace(next.ClaimURI) == "" {
			return nil, models.ErrInvalidClaimURI(next.ClaimURI)
		}

		k := next.Key()
		if _, dup := seen[k]; dup {
			return nil, models.ErrClaimExists(userID)
		}
		seen[k] = struct{}{}
		if checkStored {
			exists, err := st.Exists(ctx, tenantID, k)
			if err != nil {
				return nil, models.ServerError(models.ReasonCheckingExistence, err)
			}
			if exists {
				return nil, models.ErrClaimExists(userID)
			}
		}
		out = append(out, next)
	}
	return out, nil
}

// AddClaims stores the batch for userID. Either every claim is stored or none.
func (m *Manager) AddClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) (_ []*models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "AddClaims", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("add", err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	batch, err := m.prepareBatch(ctx, st, tenantID, userID, claims, true)
	if err != nil {
		return nil, err
	}
	if err := st.Add(ctx, tenantID, batch); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, models.ErrClaimExists(userID)
		}
		return nil, models.ServerError(models.ReasonAddingClaims, err)
	}

	m.logger.InfoContext(ctx, "identity verification claims added",
		"tenant_id", tenantID, "user_id", userID, "count", len(batch))
	m.emitAudit(ctx, audit.EventClaimsAdded, tenantID, userID, "")
	return models.CloneClaims(batch), nil
}

// UpdateClaim changes the verification status and metadata of one claim.
func (m *Manager) UpdateClaim(ctx context.Context, tenantID int, userID string, claim *models.Claim) (_ *models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "UpdateClaim", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("update", err) }()

	if claim == nil {
		return nil, models.ErrEmptyMetadata()
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	if err := m.requireClaim(ctx, st, tenantID, claim.UUID); err != nil {
		return nil, err
	}
	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	if claim.Metadata == nil {
		return nil, models.ErrEmptyMetadata()
	}

	next := claim.Clone()
	next.UserID = userID
	if err := st.Update(ctx, tenantID, next); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrInvalidClaimID(claim.UUID)
		}
		return nil, models.ServerError(models.ReasonUpdating, err)
	}
	updated, err := st.Get(ctx, tenantID, userID, next.UUID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrInvalidClaimID(claim.UUID)
		}
		return nil, models.ServerError(models.ReasonRetrievingClaim, err)
	}

	m.emitAudit(ctx, audit.EventClaimUpdated, tenantID, userID, updated.UUID)
	return updated, nil
}

// UpdateClaims replaces every claim of userID with claims. The batch is
// validated before anything is removed.
func (m *Manager) UpdateClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) (_ []*models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "UpdateClaims", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("replace", err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	batch, err := m.prepareBatch(ctx, st, tenantID, userID, claims, false)
	if err != nil {
		return nil, err
	}
	if err := st.Replace(ctx, tenantID, userID, batch); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, models.ErrClaimExists(userID)
		}
		return nil, models.ServerError(models.ReasonUpdatingClaims, err, userID)
	}

	m.logger.InfoContext(ctx, "identity verification claims replaced",
		"tenant_id", tenantID, "user_id", userID, "count", len(batch))
	m.emitAudit(ctx, audit.EventClaimsReplaced, tenantID, userID, "")
	return models.CloneClaims(batch), nil
}

func (m *Manager) requireClaim(ctx context.Context, st store.Store, tenantID int, claimID string) error {
	if strings.TrimSpace(claimID) == "" {
		return models.ErrInvalidClaimID(claimID)
	}
	ok, err := st.ExistsByID(ctx, tenantID, claimID)
	if err != nil {
		return models.ServerError(models.ReasonCheckingExistence, err)
	}
	if !ok {
		return models.ErrInvalidClaimID(claimID)
	}
	return nil
}

// GetClaim returns the claim with claimID owned by userID.
func (m *Manager) GetClaim(ctx context.Context, tenantID int, userID, claimID string) (_ *models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "GetClaim", tenantID, userID)
	defer func() { endSpan(span, err) }()

	st, err := m.store()
	if err != nil {
		return nil, err
	}
	if err := m.requireClaim(ctx, st, tenantID, claimID); err != nil {
		return nil, err
	}
	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	claim, err := st.Get(ctx, tenantID, userID, claimID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.ErrInvalidClaimID(claimID)
	}
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingClaim, err)
	}
	return claim, nil
}

// GetClaimByURI returns the user's claim for claimURI, optionally restricted
// to one provider. A missing claim is reported as not found.
func (m *Manager) GetClaimByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (_ *models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "GetClaimByURI", tenantID, userID)
	defer func() { endSpan(span, err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(providerID) != "" {
		if err := m.validateProvider(ctx, tenantID, providerID); err != nil {
			return nil, err
		}
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	claim, err := st.GetByURI(ctx, tenantID, userID, claimURI, providerID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.ErrClaimURINotFound(claimURI)
	}
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingClaim, err)
	}
	return claim, nil
}

// GetClaims lists the user's claims. A blank providerID lists all of them.
func (m *Manager) GetClaims(ctx context.Context, tenantID int, userID, providerID string) (_ []*models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "GetClaims", tenantID, userID)
	defer func() { endSpan(span, err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	claims, err := st.List(ctx, tenantID, userID, strings.TrimSpace(providerID))
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingClaims, err)
	}
	return claims, nil
}

// GetClaimsByMetadata lists claims across users whose metadata has key set to
// value, optionally restricted to one provider.
func (m *Manager) GetClaimsByMetadata(ctx context.Context, tenantID int, key, value, providerID string) (_ []*models.Claim, err error) {
	ctx, span := m.startSpan(ctx, "GetClaimsByMetadata", tenantID, "")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(key) == "" {
		return nil, models.ErrEmptyMetadata()
	}
	if strings.TrimSpace(providerID) != "" {
		if err := m.validateProvider(ctx, tenantID, providerID); err != nil {
			return nil, err
		}
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	claims, err := st.ListByMetadata(ctx, tenantID, key, value, providerID)
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingByMetadata, err)
	}
	return claims, nil
}

// ClaimExists reports whether claimID is stored in the tenant.
func (m *Manager) ClaimExists(ctx context.Context, tenantID int, claimID string) (bool, error) {
	st, err := m.store()
	if err != nil {
		return false, err
	}
	ok, err := st.ExistsByID(ctx, tenantID, claimID)
	if err != nil {
		return false, models.ServerError(models.ReasonCheckingExistence, err)
	}
	return ok, nil
}

// DeleteClaim removes one claim of userID. Deleting a missing claim succeeds.
func (m *Manager) DeleteClaim(ctx context.Context, tenantID int, userID, claimID string) (err error) {
	ctx, span := m.startSpan(ctx, "DeleteClaim", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("delete", err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return err
	}
	st, err := m.store()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, tenantID, userID, claimID); err != nil {
		return models.ServerError(models.ReasonDeleting, err)
	}
	m.emitAudit(ctx, audit.EventClaimDeleted, tenantID, userID, claimID)
	return nil
}

// DeleteClaims removes every claim of userID.
func (m *Manager) DeleteClaims(ctx context.Context, tenantID int, userID string) (err error) {
	ctx, span := m.startSpan(ctx, "DeleteClaims", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("delete_user", err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return err
	}
	st, err := m.store()
	if err != nil {
		return err
	}
	if err := st.DeleteByUser(ctx, tenantID, userID); err != nil {
		return models.ServerError(models.ReasonDeletingClaims, err, userID)
	}
	m.emitAudit(ctx, audit.EventClaimsDeleted, tenantID, userID, "")
	return nil
}

// DeleteClaimsByURI removes the user's claims matching the optional provider
// and claim URI filters. The user is not looked up, so this also serves users
// that are already gone.
func (m *Manager) DeleteClaimsByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) (err error) {
	ctx, span := m.startSpan(ctx, "DeleteClaimsByURI", tenantID, userID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("delete_uri", err) }()

	if strings.TrimSpace(userID) == "" {
		return models.ErrInvalidUser(userID)
	}
	st, err := m.store()
	if err != nil {
		return err
	}
	if err := st.DeleteByURI(ctx, tenantID, userID, providerID, claimURI); err != nil {
		return models.ServerError(models.ReasonDeletingClaimData, err, userID)
	}
	m.emitAudit(ctx, audit.EventClaimsDeleted, tenantID, userID, claimURI)
	return nil
}

// VerifyIdentity runs the verifier plugin registered for the provider's type.
func (m *Manager) VerifyIdentity(ctx context.Context, tenantID int, userID string, data *models.VerifierData) (_ *models.VerifierData, err error) {
	ctx, span := m.startSpan(ctx, "VerifyIdentity", tenantID, userID)
	defer func() { endSpan(span, err) }()

	if err := m.validateUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, models.ErrInvalidProvider("")
	}
	if err := m.validateProvider(ctx, tenantID, data.ProviderID); err != nil {
		return nil, err
	}
	providerType, err := m.providerType(ctx, tenantID, data.ProviderID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("idvp.type", providerType))

	factory, ok := m.verifiers.Get(providerType)
	if !ok {
		return nil, models.ErrInvalidVerifier(providerType)
	}
	v := factory.Verifier(providerType)
	if v == nil {
		return nil, models.ErrInvalidVerifier(providerType)
	}

	start := time.Now()
	result, err := v.VerifyIdentity(ctx, tenantID, userID, data)
	m.metrics.ObserveVerification(providerType, start, err)
	if err != nil {
		m.logger.WarnContext(ctx, "identity verification failed",
			"tenant_id", tenantID, "user_id", userID, "provider_id", data.ProviderID, "error", err)
		return nil, err
	}

	m.emitAudit(ctx, audit.EventIdentityVerified, tenantID, userID, data.ProviderID)
	return result, nil
}

func (m *Manager) providerType(ctx context.Context, tenantID int, providerID string) (string, error) {
	p, err := m.providers.Get(ctx, tenantID, providerID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return "", models.ErrInvalidProvider(providerID)
	}
	if err != nil {
		return "", models.ServerError(models.ReasonRetrievingProvider, err)
	}
	return p.Type, nil
}

func (m *Manager) emitAudit(ctx context.Context, event audit.AuditEvent, tenantID int, userID, subject string) {
	if m.auditPublisher == nil {
		return
	}
	err := m.auditPublisher.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		TenantID: tenantID,
		UserID:   userID,
		Subject:  subject,
		Action:   string(event),
	})
	if err != nil {
		m.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(event), "user_id", userID, "error", err)
	}
}
