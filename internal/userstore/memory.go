package userstore

import (
	"context"
	"maps"
	"sync"
)

type userKey struct {
	tenantID int
	userID   string
}

// InMemory is a process-local directory for tests and local runs.
type InMemory struct {
	mu    sync.RWMutex
	users map[userKey]map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[userKey]map[string]string)}
}

func (s *InMemory) UserExists(_ context.Context, tenantID int, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userKey{tenantID, userID}]
	return ok, nil
}

// ClaimValues returns the requested claims the user has. Missing claims are omitted.
func (s *InMemory) ClaimValues(_ context.Context, tenantID int, userID string, claimURIs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claims, ok := s.users[userKey{tenantID, userID}]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := make(map[string]string, len(claimURIs))
	for _, uri := range claimURIs {
		if v, ok := claims[uri]; ok {
			out[uri] = v
		}
	}
	return out, nil
}

func (s *InMemory) Upsert(_ context.Context, tenantID int, userID string, claims map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey{tenantID, userID}
	existing, ok := s.users[k]
	if !ok {
		existing = make(map[string]string, len(claims))
		s.users[k] = existing
	}
	maps.Copy(existing, claims)
	return nil
}

func (s *InMemory) DeleteClaims(_ context.Context, tenantID int, userID string, claimURIs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.users[userKey{tenantID, userID}]
	if !ok {
		return nil
	}
	for _, uri := range claimURIs {
		delete(claims, uri)
	}
	return nil
}

func (s *InMemory) Delete(_ context.Context, tenantID int, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userKey{tenantID, userID})
	return nil
}
