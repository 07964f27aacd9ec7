// Package echo is a reference verifier. It treats every mapped claim the user
// has a value for as verified and records the provider claim it matched.
package echo

import (
	"context"
	"slices"

	"idvmgt/internal/idv/models"
	"idvmgt/internal/idv/verifier"
	dErrors "idvmgt/pkg/domain-errors"
)

// Type is the provider type served by this plugin.
const Type = "ECHO"

type Verifier struct {
	verifier.Base
}

func New(base verifier.Base) *Verifier {
	return &Verifier{Base: base}
}

// Factory returns a factory serving Type.
func Factory(base verifier.Base) verifier.Factory {
	v := New(base)
	return verifier.FactoryFunc(func(providerType string) verifier.Verifier {
		if providerType != Type {
			return nil
		}
		return v
	})
}

// VerifyIdentity verifies the claims listed in data, or every mapped claim
// when data lists none, and stores the result.
func (v *Verifier) VerifyIdentity(ctx context.Context, tenantID int, userID string, data *models.VerifierData) (*models.VerifierData, error) {
	provider, err := v.Provider(ctx, tenantID, data)
	if err != nil {
		return nil, err
	}
	mappings := v.ClaimMappings(provider)
	values, err := v.ClaimValues(ctx, tenantID, userID, provider)
	if err != nil {
		return nil, err
	}

	uris := requestedURIs(data, mappings)
	var added []*models.Claim
	result := &models.VerifierData{ProviderID: provider.UUID, Properties: data.Properties}
	for _, uri := range uris {
		remote, mapped := mappings[uri]
		_, hasValue := values[remote]
		metadata := map[string]any{
			"verifier":  Type,
			"idvpClaim": remote,
			"mapped":    mapped,
		}

		existing, err := v.Claims.GetClaimByURI(ctx, tenantID, userID, uri, provider.UUID)
		switch {
		case err == nil:
			existing.IsVerified = mapped && hasValue
			existing.Metadata = metadata
			updated, err := v.UpdateClaim(ctx, tenantID, userID, existing)
			if err != nil {
				return nil, err
			}
			result.Claims = append(result.Claims, updated)
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			added = append(added, &models.Claim{
				UserID:     userID,
				ProviderID: provider.UUID,
				ClaimURI:   uri,
				IsVerified: mapped && hasValue,
				Metadata:   metadata,
			})
		default:
			return nil, err
		}
	}

	if len(added) > 0 {
		stored, err := v.StoreClaims(ctx, tenantID, userID, added)
		if err != nil {
			return nil, err
		}
		result.Claims = append(result.Claims, stored...)
	}
	return result, nil
}

func requestedURIs(data *models.VerifierData, mappings map[string]string) []string {
	var uris []string
	if len(data.Claims) > 0 {
		for _, c := range data.Claims {
			if c != nil && c.ClaimURI != "" && !slices.Contains(uris, c.ClaimURI) {
				uris = append(uris, c.ClaimURI)
			}
		}
		return uris
	}
	for local := range mappings {
		uris = append(uris, local)
	}
	slices.Sort(uris)
	return uris
}
