// Package service implements provider management: validation, secret
// handling and store selection.
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

	"idvmgt/internal/idvp/metrics"
	"idvmgt/internal/idvp/models"
	"idvmgt/internal/idvp/store"
	"idvmgt/internal/idvp/store/cached"
	"idvmgt/internal/platform/cache"
	"idvmgt/internal/platform/registry"
	"idvmgt/pkg/platform/audit"
	"idvmgt/pkg/platform/sentinel"
)

const (
	defaultItemsPerPage = 15
	maxItemsPerPage     = 100
)

// SecretProcessor moves confidential properties to and from the vault.
type SecretProcessor interface {
	Encrypt(ctx context.Context, tenantID int, provider *models.Provider) (*models.Provider, error)
	Decrypt(ctx context.Context, tenantID int, provider *models.Provider) (*models.Provider, error)
	DeleteAll(ctx context.Context, tenantID int, provider *models.Provider) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Manager is the provider management entry point.
type Manager struct {
	stores         *registry.Registry[store.Store]
	backend        string
	secrets        SecretProcessor
	cache          *cache.Cache[*models.Provider]
	defaultLimit   int
	maxLimit       int
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
func WithCache(c *cache.Cache[*models.Provider]) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithPagination sets the default and maximum page sizes for List.
func WithPagination(defaultLimit, maxLimit int) Option {
	return func(m *Manager) {
		if defaultLimit > 0 {
			m.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			m.maxLimit = maxLimit
		}
	}
}

// New creates a manager that reads and writes through the store registered
// under backend.
func New(stores *registry.Registry[store.Store], backend string, secrets SecretProcessor, opts ...Option) *Manager {
	m := &Manager{
		stores:       stores,
		backend:      backend,
		secrets:      secrets,
		defaultLimit: defaultItemsPerPage,
		maxLimit:     maxItemsPerPage,
		logger:       slog.Default(),
		tracer:       otel.Tracer("idvmgt/idvp"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) store() (store.Store, error) {
	st, ok := m.stores.Get(m.backend)
	if !ok {
		return nil, models.ServerError(models.ReasonNoStore, fmt.Errorf("backend %q not registered", m.backend))
	}
	if m.cache != nil {
		return cached.New(st, m.cache, m.logger), nil
	}
	return st, nil
}

func (m *Manager) startSpan(ctx context.Context, name string, tenantID int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "idvp."+name, trace.WithAttributes(attribute.Int("tenant.id", tenantID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Add registers a new provider under a fresh UUID.
func (m *Manager) Add(ctx context.Context, tenantID int, provider *models.Provider) (_ *models.Provider, err error) {
	ctx, span := m.startSpan(ctx, "Add", tenantID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("add", err) }()

	if provider == nil {
		return nil, models.ServerError(models.ReasonAdding, errors.New("nil provider"))
	}
	name := strings.TrimSpace(provider.Name)
	if name == "" {
		return nil, models.ErrEmptyName()
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}

	exists, err := st.ExistsByName(ctx, tenantID, name)
	if err != nil {
		return nil, models.ServerError(models.ReasonAdding, err)
	}
	if exists {
		return nil, models.ErrAlreadyExists(name)
	}

	created := provider.Clone()
	created.Name = name
	created.UUID = uuid.NewString()

	encrypted, err := m.secrets.Encrypt(ctx, tenantID, created)
	if err != nil {
		return nil, err
	}
	if err := st.Create(ctx, tenantID, encrypted); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, models.ErrAlreadyExists(name)
		}
		return nil, models.ServerError(models.ReasonAdding, err)
	}

	m.logger.InfoContext(ctx, "identity verification provider added",
		"tenant_id", tenantID, "provider_id", created.UUID, "provider_type", created.Type)
	m.emitAudit(ctx, audit.EventProviderCreated, tenantID, created.UUID)
	return created, nil
}

// Update replaces old with updated. The UUID and type of old are kept.
func (m *Manager) Update(ctx context.Context, tenantID int, old, updated *models.Provider) (_ *models.Provider, err error) {
	ctx, span := m.startSpan(ctx, "Update", tenantID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("update", err) }()

	if old == nil || updated == nil {
		return nil, models.ServerError(models.ReasonUpdating, errors.New("old and new provider are required"))
	}
	if updated.Type != old.Type {
		return nil, models.ErrTypeChange()
	}
	name := strings.TrimSpace(updated.Name)
	if name == "" {
		return nil, models.ErrEmptyName()
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}

	owner, err := st.GetByName(ctx, tenantID, name)
	switch {
	case err == nil && owner.UUID != old.UUID:
		return nil, models.ErrAlreadyExists(name)
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return nil, models.ServerError(models.ReasonUpdating, err)
	}

	next := updated.Clone()
	next.Name = name
	next.UUID = old.UUID
	next.ID = old.ID

	encrypted, err := m.secrets.Encrypt(ctx, tenantID, next)
	if err != nil {
		return nil, err
	}
	if err := st.Update(ctx, tenantID, old, encrypted); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, models.ErrNotFound(old.UUID)
		case errors.Is(err, sentinel.ErrConflict):
			return nil, models.ErrAlreadyExists(name)
		}
		return nil, models.ServerError(models.ReasonUpdating, err)
	}

	if dropped := droppedSecrets(old, next); len(dropped.ConfigProperties) > 0 {
		if err := m.secrets.DeleteAll(ctx, tenantID, dropped); err != nil {
			m.logger.WarnContext(ctx, "failed to remove secrets of dropped properties",
				"tenant_id", tenantID, "provider_id", old.UUID, "error", err)
		}
	}

	m.emitAudit(ctx, audit.EventProviderUpdated, tenantID, next.UUID)
	return next, nil
}

// droppedSecrets returns old's confidential properties that are no longer
// confidential in next.
func droppedSecrets(old, next *models.Provider) *models.Provider {
	out := &models.Provider{UUID: old.UUID}
	for _, prop := range old.ConfigProperties {
		if !prop.Confidential {
			continue
		}
		if np, ok := next.Property(prop.Name); ok && np.Confidential {
			continue
		}
		out.ConfigProperties = append(out.ConfigProperties, prop)
	}
	return out
}

// Delete removes the provider and all of its secrets.
func (m *Manager) Delete(ctx context.Context, tenantID int, id string) (err error) {
	ctx, span := m.startSpan(ctx, "Delete", tenantID)
	defer func() { endSpan(span, err); m.metrics.RecordOperation("delete", err) }()

	if strings.TrimSpace(id) == "" {
		return models.ErrEmptyID()
	}
	st, err := m.store()
	if err != nil {
		return err
	}
	provider, err := st.Get(ctx, tenantID, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrNotFound(id)
	}
	if err != nil {
		return models.ServerError(models.ReasonDeleting, err, id)
	}
	// Secrets go before the row. A failed row delete leaves a provider whose
	// secret references no longer resolve; retrying Delete clears it.
	if err := m.secrets.DeleteAll(ctx, tenantID, provider); err != nil {
		return err
	}
	if err := st.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrNotFound(id)
		}
		return models.ServerError(models.ReasonDeleting, err, id)
	}

	m.logger.InfoContext(ctx, "identity verification provider deleted",
		"tenant_id", tenantID, "provider_id", id)
	m.emitAudit(ctx, audit.EventProviderDeleted, tenantID, id)
	return nil
}

// Get returns the provider with confidential values resolved.
func (m *Manager) Get(ctx context.Context, tenantID int, id string) (_ *models.Provider, err error) {
	ctx, span := m.startSpan(ctx, "Get", tenantID)
	defer func() { endSpan(span, err) }()
	defer m.metrics.ObserveGet(time.Now())

	if strings.TrimSpace(id) == "" {
		return nil, models.ErrEmptyID()
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	provider, err := st.Get(ctx, tenantID, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.ErrNotFound(id)
	}
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingProvider, err, id)
	}
	return m.secrets.Decrypt(ctx, tenantID, provider)
}

// GetByName returns the named provider with confidential values resolved.
func (m *Manager) GetByName(ctx context.Context, tenantID int, name string) (_ *models.Provider, err error) {
	ctx, span := m.startSpan(ctx, "GetByName", tenantID)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(name) == "" {
		return nil, models.ErrEmptyName()
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	provider, err := st.GetByName(ctx, tenantID, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.ErrNotFound(name)
	}
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingProvider, err, name)
	}
	return m.secrets.Decrypt(ctx, tenantID, provider)
}

// List returns a page of providers ordered by UUID. Confidential properties
// keep their secret references.
func (m *Manager) List(ctx context.Context, tenantID int, limit, offset *int, filter string) (_ []*models.Provider, err error) {
	ctx, span := m.startSpan(ctx, "List", tenantID)
	defer func() { endSpan(span, err) }()
	defer m.metrics.ObserveList(time.Now())

	exprs, err := models.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	l, err := m.validateLimit(limit)
	if err != nil {
		return nil, err
	}
	o, err := validateOffset(offset)
	if err != nil {
		return nil, err
	}
	st, err := m.store()
	if err != nil {
		return nil, err
	}
	providers, err := st.List(ctx, tenantID, l, o, exprs)
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingProviders, err)
	}
	return providers, nil
}

func (m *Manager) validateLimit(limit *int) (int, error) {
	if limit == nil {
		return m.defaultLimit, nil
	}
	if *limit < 0 {
		return 0, models.ErrInvalidPagination(fmt.Sprintf("Given limit: %d is a negative value.", *limit))
	}
	return min(*limit, m.maxLimit), nil
}

func validateOffset(offset *int) (int, error) {
	if offset == nil {
		return 0, nil
	}
	if *offset < 0 {
		return 0, models.ErrInvalidPagination(
			fmt.Sprintf("Invalid offset applied. Offset should not negative. offSet: %d", *offset))
	}
	return *offset, nil
}

// Count returns how many providers match filter.
func (m *Manager) Count(ctx context.Context, tenantID int, filter string) (_ int, err error) {
	ctx, span := m.startSpan(ctx, "Count", tenantID)
	defer func() { endSpan(span, err) }()

	exprs, err := models.ParseFilter(filter)
	if err != nil {
		return 0, err
	}
	st, err := m.store()
	if err != nil {
		return 0, err
	}
	n, err := st.Count(ctx, tenantID, exprs)
	if err != nil {
		return 0, models.ServerError(models.ReasonCounting, err, tenantID)
	}
	return n, nil
}

func (m *Manager) Exists(ctx context.Context, tenantID int, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, models.ErrEmptyID()
	}
	st, err := m.store()
	if err != nil {
		return false, err
	}
	ok, err := st.Exists(ctx, tenantID, id)
	if err != nil {
		return false, models.ServerError(models.ReasonRetrievingProvider, err, id)
	}
	return ok, nil
}

func (m *Manager) ExistsByName(ctx context.Context, tenantID int, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, models.ErrEmptyName()
	}
	st, err := m.store()
	if err != nil {
		return false, err
	}
	ok, err := st.ExistsByName(ctx, tenantID, name)
	if err != nil {
		return false, models.ServerError(models.ReasonRetrievingProvider, err, name)
	}
	return ok, nil
}

func (m *Manager) emitAudit(ctx context.Context, event audit.AuditEvent, tenantID int, providerID string) {
	if m.auditPublisher == nil {
		return
	}
	err := m.auditPublisher.Emit(ctx, audit.Event{
		TenantID: tenantID,
		Subject:  providerID,
		Action:   string(event),
	})
	if err != nil {
		m.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(event), "provider_id", providerID, "error", err)
	}
}
