// Package userstore is the user directory consulted for user validation and
// for local claim values handed to verifiers. It is a projection fed by user
// lifecycle events.
package userstore

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned by ClaimValues for unknown users.
var ErrUserNotFound = errors.New("user not found")

// Store is the user directory contract.
type Store interface {
	UserExists(ctx context.Context, tenantID int, userID string) (bool, error)
	ClaimValues(ctx context.Context, tenantID int, userID string, claimURIs []string) (map[string]string, error)
	Upsert(ctx context.Context, tenantID int, userID string, claims map[string]string) error
	DeleteClaims(ctx context.Context, tenantID int, userID string, claimURIs []string) error
	Delete(ctx context.Context, tenantID int, userID string) error
}
