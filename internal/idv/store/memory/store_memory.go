package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"idvmgt/internal/idv/models"
	"idvmgt/pkg/platform/sentinel"
)

// InMemoryStore keeps claims per tenant in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	claims map[int][]*models.Claim
}

func New() *InMemoryStore {
	return &InMemoryStore{claims: make(map[int][]*models.Claim)}
}

func (s *InMemoryStore) Add(_ context.Context, tenantID int, claims []*models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range claims {
		if s.indexByID(tenantID, c.UUID) >= 0 {
			return sentinel.ErrConflict
		}
	}
	s.appendLocked(tenantID, claims)
	return nil
}

func (s *InMemoryStore) appendLocked(tenantID int, claims []*models.Claim) {
	for _, c := range claims {
		s.nextID++
		stored := c.Clone()
		stored.ID = s.nextID
		c.ID = stored.ID
		s.claims[tenantID] = append(s.claims[tenantID], stored)
	}
}

func (s *InMemoryStore) Replace(_ context.Context, tenantID int, userID string, claims []*models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[tenantID] = slices.DeleteFunc(s.claims[tenantID], func(c *models.Claim) bool {
		return c.UserID == userID
	})
	s.appendLocked(tenantID, claims)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, tenantID int, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexByID(tenantID, claim.UUID)
	if i < 0 || s.claims[tenantID][i].UserID != claim.UserID {
		return sentinel.ErrNotFound
	}
	updated := s.claims[tenantID][i].Clone()
	updated.IsVerified = claim.IsVerified
	updated.Metadata = claim.Clone().Metadata
	s.claims[tenantID][i] = updated
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID int, userID, claimID string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexByID(tenantID, claimID)
	if i < 0 || s.claims[tenantID][i].UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return s.claims[tenantID][i].Clone(), nil
}

func (s *InMemoryStore) GetByURI(_ context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.claims[tenantID] {
		if c.UserID == userID && c.ClaimURI == claimURI && (providerID == "" || c.ProviderID == providerID) {
			return c.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Claim{}
	for _, c := range s.claims[tenantID] {
		if c.UserID == userID && (providerID == "" || c.ProviderID == providerID) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByMetadata(_ context.Context, tenantID int, key, value, providerID string) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Claim{}
	for _, c := range s.claims[tenantID] {
		if providerID != "" && c.ProviderID != providerID {
			continue
		}
		if v, ok := c.Metadata[key]; ok && fmt.Sprint(v) == value {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, tenantID int, userID, claimID string) error {
	s.deleteWhere(tenantID, func(c *models.Claim) bool {
		return c.UserID == userID && c.UUID == claimID
	})
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, tenantID int, userID string) error {
	s.deleteWhere(tenantID, func(c *models.Claim) bool { return c.UserID == userID })
	return nil
}

func (s *InMemoryStore) DeleteByURI(_ context.Context, tenantID int, userID, providerID, claimURI string) error {
	s.deleteWhere(tenantID, func(c *models.Claim) bool {
		return c.UserID == userID &&
			(providerID == "" || c.ProviderID == providerID) &&
			(claimURI == "" || c.ClaimURI == claimURI)
	})
	return nil
}

func (s *InMemoryStore) deleteWhere(tenantID int, match func(*models.Claim) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[tenantID] = slices.DeleteFunc(s.claims[tenantID], match)
}

func (s *InMemoryStore) Exists(_ context.Context, tenantID int, key models.ClaimKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.claims[tenantID] {
		if c.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ExistsByID(_ context.Context, tenantID int, claimID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexByID(tenantID, claimID) >= 0, nil
}

func (s *InMemoryStore) indexByID(tenantID int, claimID string) int {
	return slices.IndexFunc(s.claims[tenantID], func(c *models.Claim) bool { return c.UUID == claimID })
}
