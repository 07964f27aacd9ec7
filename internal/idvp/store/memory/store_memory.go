package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"idvmgt/internal/idvp/models"
	"idvmgt/pkg/platform/sentinel"
)

// InMemoryStore keeps providers per tenant, keyed by UUID.
type InMemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	providers map[int]map[string]*models.Provider
}

func New() *InMemoryStore {
	return &InMemoryStore{providers: make(map[int]map[string]*models.Provider)}
}

func (s *InMemoryStore) Get(_ context.Context, tenantID int, id string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[tenantID][id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) GetByName(_ context.Context, tenantID int, name string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.findByName(tenantID, name); p != nil {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) findByName(tenantID int, name string) *models.Provider {
	for _, p := range s.providers[tenantID] {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID, limit, offset int, filter []models.Expression) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matching(tenantID, filter)
	slices.SortFunc(matched, func(a, b *models.Provider) int {
		return strings.Compare(a.UUID, b.UUID)
	})
	if offset >= len(matched) {
		return []*models.Provider{}, nil
	}
	end := min(offset+limit, len(matched))
	out := make([]*models.Provider, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, tenantID int, filter []models.Expression) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(tenantID, filter)), nil
}

func (s *InMemoryStore) matching(tenantID int, filter []models.Expression) []*models.Provider {
	var out []*models.Provider
	for _, p := range s.providers[tenantID] {
		if models.MatchesAll(filter, p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *InMemoryStore) Exists(_ context.Context, tenantID int, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.providers[tenantID][id]
	return ok, nil
}

func (s *InMemoryStore) ExistsByName(_ context.Context, tenantID int, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByName(tenantID, name) != nil, nil
}

func (s *InMemoryStore) Create(_ context.Context, tenantID int, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByName(tenantID, provider.Name) != nil {
		return sentinel.ErrConflict
	}
	tenant, ok := s.providers[tenantID]
	if !ok {
		tenant = make(map[string]*models.Provider)
		s.providers[tenantID] = tenant
	}
	if _, ok := tenant[provider.UUID]; ok {
		return sentinel.ErrConflict
	}
	s.nextID++
	stored := provider.Clone()
	stored.ID = s.nextID
	tenant[provider.UUID] = stored
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, tenantID int, old, updated *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.providers[tenantID][old.UUID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if other := s.findByName(tenantID, updated.Name); other != nil && other.UUID != old.UUID {
		return sentinel.ErrConflict
	}
	stored := updated.Clone()
	stored.ID = existing.ID
	stored.UUID = existing.UUID
	s.providers[tenantID][old.UUID] = stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, tenantID int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[tenantID][id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.providers[tenantID], id)
	return nil
}
