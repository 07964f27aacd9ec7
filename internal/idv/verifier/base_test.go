package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idvmgt/internal/idv/models"
	idvpmodels "idvmgt/internal/idvp/models"
	dErrors "idvmgt/pkg/domain-errors"
)

type stubUsers struct {
	values map[string]string
	err    error
}

func (s stubUsers) ClaimValues(_ context.Context, _ int, _ string, uris []string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string)
	for _, uri := range uris {
		if v, ok := s.values[uri]; ok {
			out[uri] = v
		}
	}
	return out, nil
}

type stubProviders struct {
	provider *idvpmodels.Provider
}

func (s stubProviders) Get(_ context.Context, _ int, id string) (*idvpmodels.Provider, error) {
	if s.provider == nil || s.provider.UUID != id {
		return nil, idvpmodels.ErrNotFound(id)
	}
	return s.provider, nil
}

func provider() *idvpmodels.Provider {
	return &idvpmodels.Provider{
		UUID: "p-1",
		Type: "ONFIDO",
		ClaimMappings: map[string]string{
			"http://wso2.org/claims/givenname": "first_name",
			"http://wso2.org/claims/lastname":  "last_name",
		},
		ConfigProperties: []idvpmodels.ConfigProperty{
			{Name: "token", Value: "secret", Confidential: true},
			{Name: "apiUrl", Value: "https://api.example.com"},
		},
	}
}

func TestBaseClaimValuesUsesProviderClaimNames(t *testing.T) {
	b := NewBase(nil, nil, stubUsers{values: map[string]string{
		"http://wso2.org/claims/givenname": "Ada",
		"http://wso2.org/claims/country":   "UK",
	}})

	values, err := b.ClaimValues(context.Background(), 1, "u-1", provider())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"first_name": "Ada"}, values)
}

func TestBaseClaimValuesFailure(t *testing.T) {
	b := NewBase(nil, nil, stubUsers{err: errors.New("directory down")})

	_, err := b.ClaimValues(context.Background(), 1, "u-1", provider())
	assert.True(t, dErrors.HasReason(err, models.ReasonRetrievingMappings))
}

func TestBaseProvider(t *testing.T) {
	b := NewBase(stubProviders{provider: provider()}, nil, nil)

	p, err := b.Provider(context.Background(), 1, &models.VerifierData{ProviderID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "secret", "apiUrl": "https://api.example.com"}, b.ConfigPropertyMap(p))
	assert.Equal(t, "last_name", b.ClaimMappings(p)["http://wso2.org/claims/lastname"])

	_, err = b.Provider(context.Background(), 1, &models.VerifierData{ProviderID: "p-2"})
	assert.True(t, dErrors.HasReason(err, models.ReasonRetrievingProvider))
}
