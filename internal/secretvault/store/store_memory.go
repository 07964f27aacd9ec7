package store

import (
	"context"
	"sync"

	"idvmgt/internal/secretvault/models"
	"idvmgt/pkg/platform/sentinel"
)

type secretKey struct {
	tenantID int
	typeID   string
	name     string
}

// InMemoryStore keeps sealed secrets in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	types   map[string]models.SecretType
	secrets map[secretKey]models.Secret
}

// NewInMemoryStore creates a store preloaded with the known secret types.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		types:   make(map[string]models.SecretType),
		secrets: make(map[secretKey]models.Secret),
	}
	for _, t := range models.KnownTypes() {
		s.types[t.Name] = t
	}
	return s
}

func (s *InMemoryStore) GetType(_ context.Context, name string) (*models.SecretType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID int, typeID, name string) (*models.Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.secrets[secretKey{tenantID, typeID, name}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	sec.Ciphertext = append([]byte(nil), sec.Ciphertext...)
	return &sec, nil
}

func (s *InMemoryStore) Create(_ context.Context, secret *models.Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := secretKey{secret.TenantID, secret.TypeID, secret.Name}
	if _, ok := s.secrets[k]; ok {
		return sentinel.ErrConflict
	}
	s.secrets[k] = stored(secret)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, secret *models.Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := secretKey{secret.TenantID, secret.TypeID, secret.Name}
	existing, ok := s.secrets[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	next := stored(secret)
	next.ID = existing.ID
	s.secrets[k] = next
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, tenantID int, typeID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := secretKey{tenantID, typeID, name}
	if _, ok := s.secrets[k]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.secrets, k)
	return nil
}

// Count reports how many secrets a tenant holds for a type.
func (s *InMemoryStore) Count(tenantID int, typeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.secrets {
		if k.tenantID == tenantID && k.typeID == typeID {
			n++
		}
	}
	return n
}

// stored drops the plaintext before the value is kept.
func stored(secret *models.Secret) models.Secret {
	cp := *secret
	cp.Value = ""
	cp.Ciphertext = append([]byte(nil), secret.Ciphertext...)
	return cp
}
