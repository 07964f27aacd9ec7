package handler

import (
	"sort"

	"idvmgt/internal/idvp/models"
)

type ProviderResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Description      string           `json:"description,omitempty"`
	IsEnabled        bool             `json:"isEnabled"`
	Claims           []ClaimMapping   `json:"claims"`
	ConfigProperties []ConfigProperty `json:"configProperties"`
}

// ProviderSummary is a list entry. Configuration is only returned by get.
type ProviderSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	IsEnabled   bool   `json:"isEnabled"`
}

type ProviderListResponse struct {
	TotalResults                  int               `json:"totalResults"`
	StartIndex                    int               `json:"startIndex"`
	Count                         int               `json:"count"`
	IdentityVerificationProviders []ProviderSummary `json:"identityVerificationProviders"`
}

func toProviderResponse(p *models.Provider) ProviderResponse {
	resp := ProviderResponse{
		ID:               p.UUID,
		Name:             p.Name,
		Type:             p.Type,
		Description:      p.Description,
		IsEnabled:        p.Enabled,
		Claims:           make([]ClaimMapping, 0, len(p.ClaimMappings)),
		ConfigProperties: make([]ConfigProperty, 0, len(p.ConfigProperties)),
	}
	for local, idvp := range p.ClaimMappings {
		resp.Claims = append(resp.Claims, ClaimMapping{LocalClaim: local, IDVPClaim: idvp})
	}
	sort.Slice(resp.Claims, func(i, j int) bool { return resp.Claims[i].LocalClaim < resp.Claims[j].LocalClaim })
	for _, prop := range p.ConfigProperties {
		resp.ConfigProperties = append(resp.ConfigProperties, ConfigProperty{
			Key:      prop.Name,
			Value:    prop.Value,
			IsSecret: prop.Confidential,
		})
	}
	return resp
}

func toListResponse(providers []*models.Provider, total, startIndex int) ProviderListResponse {
	resp := ProviderListResponse{
		TotalResults:                  total,
		StartIndex:                    startIndex,
		Count:                         len(providers),
		IdentityVerificationProviders: make([]ProviderSummary, 0, len(providers)),
	}
	for _, p := range providers {
		resp.IdentityVerificationProviders = append(resp.IdentityVerificationProviders, ProviderSummary{
			ID:          p.UUID,
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			IsEnabled:   p.Enabled,
		})
	}
	return resp
}
