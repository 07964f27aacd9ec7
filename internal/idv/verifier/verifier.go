// Package verifier holds the identity verifier plugin contract, the registry
// that maps provider types to plugin factories and helpers shared by plugins.
package verifier

import (
	"context"
	"fmt"

	"idvmgt/internal/idv/models"
	"idvmgt/internal/platform/registry"
)

// Verifier runs an identity verification against one vendor.
type Verifier interface {
	VerifyIdentity(ctx context.Context, tenantID int, userID string, data *models.VerifierData) (*models.VerifierData, error)
}

// Factory builds the verifier for a provider type. It may return nil when it
// cannot serve the type.
type Factory interface {
	Verifier(providerType string) Verifier
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(providerType string) Verifier

func (f FactoryFunc) Verifier(providerType string) Verifier {
	return f(providerType)
}

// Registry maps provider types to factories.
type Registry struct {
	factories *registry.Registry[Factory]
}

func NewRegistry() *Registry {
	return &Registry{factories: registry.New[Factory]("identity verifier")}
}

// Register adds f for providerType. A type can only be registered once.
func (r *Registry) Register(providerType string, f Factory) error {
	if providerType == "" || f == nil {
		return fmt.Errorf("identity verifier requires a type and a factory")
	}
	return r.factories.Register(providerType, f)
}

func (r *Registry) Unregister(providerType string) {
	r.factories.Unregister(providerType)
}

func (r *Registry) Get(providerType string) (Factory, bool) {
	return r.factories.Get(providerType)
}

// Types lists the registered provider types.
func (r *Registry) Types() []string {
	return r.factories.Names()
}
