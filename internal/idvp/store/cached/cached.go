// Package cached decorates a provider store with a tenant-scoped read cache
// keyed by provider id and by provider name.
package cached

import (
	"context"
	"log/slog"

	"idvmgt/internal/idvp/models"
	"idvmgt/internal/idvp/store"
	"idvmgt/internal/platform/cache"
)

const (
	kindID   = "idvp-id"
	kindName = "idvp-name"
)

// Store serves Get, GetByName and the existence checks from cache. Writes go
// to the wrapped store first and then invalidate.
type Store struct {
	next   store.Store
	cache  *cache.Cache[*models.Provider]
	logger *slog.Logger
}

func New(next store.Store, c *cache.Cache[*models.Provider], logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, cache: c, logger: logger}
}

func idKey(tenantID int, id string) string {
	return cache.Key(tenantID, kindID, id)
}

func nameKey(tenantID int, name string) string {
	return cache.Key(tenantID, kindName, name)
}

func (s *Store) Get(ctx context.Context, tenantID int, id string) (*models.Provider, error) {
	p, hit, err := s.cache.GetOrLoadAliased(idKey(tenantID, id), func() (*models.Provider, error) {
		return s.next.Get(ctx, tenantID, id)
	}, func(p *models.Provider) []string {
		return []string{nameKey(tenantID, p.Name)}
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		s.logger.DebugContext(ctx, "provider cache miss", "tenant_id", tenantID, "provider_id", id)
	}
	return p.Clone(), nil
}

func (s *Store) GetByName(ctx context.Context, tenantID int, name string) (*models.Provider, error) {
	p, _, err := s.cache.GetOrLoadAliased(nameKey(tenantID, name), func() (*models.Provider, error) {
		return s.next.GetByName(ctx, tenantID, name)
	}, func(p *models.Provider) []string {
		return []string{idKey(tenantID, p.UUID)}
	})
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (s *Store) List(ctx context.Context, tenantID, limit, offset int, filter []models.Expression) ([]*models.Provider, error) {
	return s.next.List(ctx, tenantID, limit, offset, filter)
}

func (s *Store) Count(ctx context.Context, tenantID int, filter []models.Expression) (int, error) {
	return s.next.Count(ctx, tenantID, filter)
}

func (s *Store) Exists(ctx context.Context, tenantID int, id string) (bool, error) {
	if _, ok := s.cache.Get(idKey(tenantID, id)); ok {
		return true, nil
	}
	return s.next.Exists(ctx, tenantID, id)
}

func (s *Store) ExistsByName(ctx context.Context, tenantID int, name string) (bool, error) {
	if _, ok := s.cache.Get(nameKey(tenantID, name)); ok {
		return true, nil
	}
	return s.next.ExistsByName(ctx, tenantID, name)
}

func (s *Store) Create(ctx context.Context, tenantID int, provider *models.Provider) error {
	return s.next.Create(ctx, tenantID, provider)
}

func (s *Store) Update(ctx context.Context, tenantID int, old, updated *models.Provider) error {
	if err := s.next.Update(ctx, tenantID, old, updated); err != nil {
		return err
	}
	s.cache.Delete(
		idKey(tenantID, old.UUID),
		nameKey(tenantID, old.Name),
		nameKey(tenantID, updated.Name),
	)
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID int, id string) error {
	keys := []string{idKey(tenantID, id)}
	if p, err := s.Get(ctx, tenantID, id); err == nil {
		keys = append(keys, nameKey(tenantID, p.Name))
	} else {
		s.logger.WarnContext(ctx, "provider lookup before delete failed",
			"tenant_id", tenantID, "provider_id", id, "error", err)
	}
	if err := s.next.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.cache.Delete(keys...)
	return nil
}
