// Package store declares the claim persistence contract. Backends live in the
// memory, postgres and mongo subpackages; cached decorates any of them.
package store

import (
	"context"

	"idvmgt/internal/idv/models"
)

// Store persists identity verification claims. Update reports a missing claim
// as sentinel.ErrNotFound. Optional filters are skipped when blank.
type Store interface {
	Add(ctx context.Context, tenantID int, claims []*models.Claim) error
	Replace(ctx context.Context, tenantID int, userID string, claims []*models.Claim) error
	Update(ctx context.Context, tenantID int, claim *models.Claim) error
	Get(ctx context.Context, tenantID int, userID, claimID string) (*models.Claim, error)
	GetByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error)
	List(ctx context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error)
	ListByMetadata(ctx context.Context, tenantID int, key, value, providerID string) ([]*models.Claim, error)
	Delete(ctx context.Context, tenantID int, userID, claimID string) error
	DeleteByUser(ctx context.Context, tenantID int, userID string) error
	DeleteByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) error
	Exists(ctx context.Context, tenantID int, key models.ClaimKey) (bool, error)
	ExistsByID(ctx context.Context, tenantID int, claimID string) (bool, error)
}
