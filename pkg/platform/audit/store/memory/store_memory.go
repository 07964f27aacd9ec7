package memory

import (
	"context"
	"sync"

	audit "idvmgt/pkg/platform/audit"
)

// InMemoryStore keeps events per tenant. Used in tests and memory-only runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[int][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TenantID] = append(s.events[event.TenantID], event)
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[tenantID]...), nil
}

// ListBySubject returns the events of one provider or claim, oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, tenantID int, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events[tenantID] {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}
