// Package store declares the provider persistence contract. Backends live in
// the memory and postgres subpackages and the cached subpackage decorates any
// of them.
package store

import (
	"context"

	"idvmgt/internal/idvp/models"
)

// Store persists providers. Missing rows are reported as sentinel.ErrNotFound
// and name collisions as sentinel.ErrConflict.
type Store interface {
	Get(ctx context.Context, tenantID int, id string) (*models.Provider, error)
	GetByName(ctx context.Context, tenantID int, name string) (*models.Provider, error)
	List(ctx context.Context, tenantID, limit, offset int, filter []models.Expression) ([]*models.Provider, error)
	Count(ctx context.Context, tenantID int, filter []models.Expression) (int, error)
	Exists(ctx context.Context, tenantID int, id string) (bool, error)
	ExistsByName(ctx context.Context, tenantID int, name string) (bool, error)
	Create(ctx context.Context, tenantID int, provider *models.Provider) error
	Update(ctx context.Context, tenantID int, old, updated *models.Provider) error
	Delete(ctx context.Context, tenantID int, id string) error
}
