package verifier

import (
	"context"

	"idvmgt/internal/idv/models"
	idvpmodels "idvmgt/internal/idvp/models"
)

// ProviderReader resolves providers with their secrets decrypted.
type ProviderReader interface {
	Get(ctx context.Context, tenantID int, id string) (*idvpmodels.Provider, error)
}

// ClaimManager is the part of the claim manager plugins write through.
type ClaimManager interface {
	AddClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) ([]*models.Claim, error)
	UpdateClaim(ctx context.Context, tenantID int, userID string, claim *models.Claim) (*models.Claim, error)
	GetClaimByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error)
}

// UserClaimReader reads local claim values of a user.
type UserClaimReader interface {
	ClaimValues(ctx context.Context, tenantID int, userID string, claimURIs []string) (map[string]string, error)
}

// Base is embedded by verifier plugins.
type Base struct {
	Providers ProviderReader
	Claims    ClaimManager
	Users     UserClaimReader
}

func NewBase(providers ProviderReader, claims ClaimManager, users UserClaimReader) Base {
	return Base{Providers: providers, Claims: claims, Users: users}
}

// Provider loads the provider named in data.
func (b Base) Provider(ctx context.Context, tenantID int, data *models.VerifierData) (*idvpmodels.Provider, error) {
	p, err := b.Providers.Get(ctx, tenantID, data.ProviderID)
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingProvider, err)
	}
	return p, nil
}

// ConfigPropertyMap returns the provider's configuration keyed by name.
func (b Base) ConfigPropertyMap(p *idvpmodels.Provider) map[string]string {
	out := make(map[string]string, len(p.ConfigProperties))
	for _, prop := range p.ConfigProperties {
		out[prop.Name] = prop.Value
	}
	return out
}

// ClaimMappings returns local claim URI to provider claim name.
func (b Base) ClaimMappings(p *idvpmodels.Provider) map[string]string {
	out := make(map[string]string, len(p.ClaimMappings))
	for local, remote := range p.ClaimMappings {
		out[local] = remote
	}
	return out
}

func (b Base) StoreClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) ([]*models.Claim, error) {
	return b.Claims.AddClaims(ctx, tenantID, userID, claims)
}

func (b Base) UpdateClaim(ctx context.Context, tenantID int, userID string, claim *models.Claim) (*models.Claim, error) {
	return b.Claims.UpdateClaim(ctx, tenantID, userID, claim)
}

// ClaimValues reads the user's values for every mapped claim and keys them by
// the provider's claim name. Claims the user has no value for are left out.
func (b Base) ClaimValues(ctx context.Context, tenantID int, userID string, p *idvpmodels.Provider) (map[string]string, error) {
	uris := make([]string, 0, len(p.ClaimMappings))
	for local := range p.ClaimMappings {
		uris = append(uris, local)
	}
	values, err := b.Users.ClaimValues(ctx, tenantID, userID, uris)
	if err != nil {
		return nil, models.ServerError(models.ReasonRetrievingMappings, err)
	}
	out := make(map[string]string, len(values))
	for local, value := range values {
		if remote, ok := p.ClaimMappings[local]; ok {
			out[remote] = value
		}
	}
	return out, nil
}
