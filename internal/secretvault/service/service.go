// Package service seals and resolves tenant secrets.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"idvmgt/internal/secretvault/models"
	"idvmgt/pkg/platform/sentinel"
	"idvmgt/pkg/requestcontext"
)

// ErrSecretNotFound is returned when the named secret does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// ErrSecretExists is returned by Add when the name is taken.
var ErrSecretExists = errors.New("secret already exists")

type Store interface {
	GetType(ctx context.Context, name string) (*models.SecretType, error)
	Get(ctx context.Context, tenantID int, typeID, name string) (*models.Secret, error)
	Create(ctx context.Context, secret *models.Secret) error
	Update(ctx context.Context, secret *models.Secret) error
	Delete(ctx context.Context, tenantID int, typeID, name string) error
}

type Cipher interface {
	Seal(plaintext, aad []byte) ([]byte, error)
	Open(sealed, aad []byte) ([]byte, error)
	Version() string
}

// Manager is the secret vault used by the provider secret processor.
type Manager struct {
	store  Store
	cipher Cipher
	logger *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(store Store, cipher Cipher, opts ...Option) *Manager {
	m := &Manager{store: store, cipher: cipher, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SecretType resolves a type by name.
func (m *Manager) SecretType(ctx context.Context, name string) (*models.SecretType, error) {
	t, err := m.store.GetType(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("secret type %s: %w", name, ErrSecretNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get secret type %s: %w", name, err)
	}
	return t, nil
}

// Exists reports whether the secret is stored.
func (m *Manager) Exists(ctx context.Context, tenantID int, typeName, name string) (bool, error) {
	t, err := m.SecretType(ctx, typeName)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, tenantID, t.ID, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check secret %s: %w", name, err)
	}
	return true, nil
}

// Add seals value and stores it under name.
func (m *Manager) Add(ctx context.Context, tenantID int, typeName, name, value string) error {
	t, err := m.SecretType(ctx, typeName)
	if err != nil {
		return err
	}
	sealed, err := m.cipher.Seal([]byte(value), aad(tenantID, t.Name, name))
	if err != nil {
		return fmt.Errorf("seal secret %s: %w", name, err)
	}
	secret := &models.Secret{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		TypeID:       t.ID,
		Name:         name,
		Ciphertext:   sealed,
		KeyVersion:   m.cipher.Version(),
		LastModified: requestcontext.Now(ctx),
	}
	if err := m.store.Create(ctx, secret); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return fmt.Errorf("add secret %s: %w", name, ErrSecretExists)
		}
		return fmt.Errorf("add secret %s: %w", name, err)
	}
	m.logger.DebugContext(ctx, "secret added", "tenant_id", tenantID, "secret_type", t.Name)
	return nil
}

// UpdateValue reseals an existing secret with a new value.
func (m *Manager) UpdateValue(ctx context.Context, tenantID int, typeName, name, value string) error {
	t, err := m.SecretType(ctx, typeName)
	if err != nil {
		return err
	}
	sealed, err := m.cipher.Seal([]byte(value), aad(tenantID, t.Name, name))
	if err != nil {
		return fmt.Errorf("seal secret %s: %w", name, err)
	}
	err = m.store.Update(ctx, &models.Secret{
		TenantID:     tenantID,
		TypeID:       t.ID,
		Name:         name,
		Ciphertext:   sealed,
		KeyVersion:   m.cipher.Version(),
		LastModified: requestcontext.Now(ctx),
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("update secret %s: %w", name, ErrSecretNotFound)
	}
	if err != nil {
		return fmt.Errorf("update secret %s: %w", name, err)
	}
	return nil
}

// Resolve returns the plaintext of a stored secret.
func (m *Manager) Resolve(ctx context.Context, tenantID int, typeName, name string) (string, error) {
	t, err := m.SecretType(ctx, typeName)
	if err != nil {
		return "", err
	}
	secret, err := m.store.Get(ctx, tenantID, t.ID, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", fmt.Errorf("resolve secret %s: %w", name, ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve secret %s: %w", name, err)
	}
	plain, err := m.cipher.Open(secret.Ciphertext, aad(tenantID, t.Name, name))
	if err != nil {
		return "", fmt.Errorf("open secret %s: %w", name, err)
	}
	return string(plain), nil
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (m *Manager) Delete(ctx context.Context, tenantID int, typeName, name string) error {
	t, err := m.SecretType(ctx, typeName)
	if err != nil {
		return err
	}
	err = m.store.Delete(ctx, tenantID, t.ID, name)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("delete secret %s: %w", name, err)
	}
	return nil
}

// aad binds a ciphertext to its tenant, type and name.
func aad(tenantID int, typeName, name string) []byte {
	return []byte(strconv.Itoa(tenantID) + "|" + typeName + "|" + name)
}
