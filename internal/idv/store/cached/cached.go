// Package cached decorates a claim store with a tenant-scoped cache of claims
// keyed by claim id.
package cached

import (
	"context"
	"log/slog"

	"idvmgt/internal/idv/models"
	"idvmgt/internal/idv/store"
	"idvmgt/internal/platform/cache"
	"idvmgt/pkg/platform/sentinel"
)

const kindClaim = "idv-claim"

// Store serves Get and ExistsByID from cache. Bulk writes look up the affected
// claim ids first so every touched entry is evicted.
type Store struct {
	next   store.Store
	cache  *cache.Cache[*models.Claim]
	logger *slog.Logger
}

func New(next store.Store, c *cache.Cache[*models.Claim], logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, cache: c, logger: logger}
}

func key(tenantID int, claimID string) string {
	return cache.Key(tenantID, kindClaim, claimID)
}

func (s *Store) Get(ctx context.Context, tenantID int, userID, claimID string) (*models.Claim, error) {
	c, hit, err := s.cache.GetOrLoad(key(tenantID, claimID), func() (*models.Claim, error) {
		return s.next.Get(ctx, tenantID, userID, claimID)
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		s.logger.DebugContext(ctx, "claim cache miss", "tenant_id", tenantID, "claim_id", claimID)
	}
	if c.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) ExistsByID(ctx context.Context, tenantID int, claimID string) (bool, error) {
	if _, ok := s.cache.Get(key(tenantID, claimID)); ok {
		return true, nil
	}
	return s.next.ExistsByID(ctx, tenantID, claimID)
}

func (s *Store) GetByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error) {
	return s.next.GetByURI(ctx, tenantID, userID, claimURI, providerID)
}

func (s *Store) List(ctx context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error) {
	return s.next.List(ctx, tenantID, userID, providerID)
}

func (s *Store) ListByMetadata(ctx context.Context, tenantID int, k, value, providerID string) ([]*models.Claim, error) {
	return s.next.ListByMetadata(ctx, tenantID, k, value, providerID)
}

func (s *Store) Exists(ctx context.Context, tenantID int, k models.ClaimKey) (bool, error) {
	return s.next.Exists(ctx, tenantID, k)
}

func (s *Store) Add(ctx context.Context, tenantID int, claims []*models.Claim) error {
	return s.next.Add(ctx, tenantID, claims)
}

func (s *Store) Update(ctx context.Context, tenantID int, claim *models.Claim) error {
	if err := s.next.Update(ctx, tenantID, claim); err != nil {
		return err
	}
	s.cache.Delete(key(tenantID, claim.UUID))
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID int, userID, claimID string) error {
	if err := s.next.Delete(ctx, tenantID, userID, claimID); err != nil {
		return err
	}
	s.cache.Delete(key(tenantID, claimID))
	return nil
}

func (s *Store) Replace(ctx context.Context, tenantID int, userID string, claims []*models.Claim) error {
	keys := s.userKeys(ctx, tenantID, userID, "", "")
	if err := s.next.Replace(ctx, tenantID, userID, claims); err != nil {
		return err
	}
	s.evict(keys)
	return nil
}

func (s *Store) DeleteByUser(ctx context.Context, tenantID int, userID string) error {
	keys := s.userKeys(ctx, tenantID, userID, "", "")
	if err := s.next.DeleteByUser(ctx, tenantID, userID); err != nil {
		return err
	}
	s.evict(keys)
	return nil
}

func (s *Store) DeleteByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) error {
	keys := s.userKeys(ctx, tenantID, userID, providerID, claimURI)
	if err := s.next.DeleteByURI(ctx, tenantID, userID, providerID, claimURI); err != nil {
		return err
	}
	s.evict(keys)
	return nil
}

// userKeys returns the cache keys of the user's claims matching the optional
// filters. A nil result means the lookup failed and the whole cache is evicted.
func (s *Store) userKeys(ctx context.Context, tenantID int, userID, providerID, claimURI string) []string {
	claims, err := s.next.List(ctx, tenantID, userID, providerID)
	if err != nil {
		s.logger.WarnContext(ctx, "claim lookup before bulk write failed",
			"tenant_id", tenantID, "user_id", userID, "error", err)
		return nil
	}
	keys := []string{}
	for _, c := range claims {
		if claimURI == "" || c.ClaimURI == claimURI {
			keys = append(keys, key(tenantID, c.UUID))
		}
	}
	return keys
}

func (s *Store) evict(keys []string) {
	if keys == nil {
		s.cache.Clear()
		return
	}
	s.cache.Delete(keys...)
}
