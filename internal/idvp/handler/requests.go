package handler

import (
	"fmt"
	"strings"

	"idvmgt/internal/idvp/models"
	dErrors "idvmgt/pkg/domain-errors"
)

type ClaimMapping struct {
	LocalClaim string `json:"localClaim"`
	IDVPClaim  string `json:"idvpClaim"`
}

type ConfigProperty struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	IsSecret bool   `json:"isSecret"`
}

// ProviderRequest is the body of create and update calls.
type ProviderRequest struct {
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Description      string           `json:"description"`
	IsEnabled        *bool            `json:"isEnabled"`
	Claims           []ClaimMapping   `json:"claims"`
	ConfigProperties []ConfigProperty `json:"configProperties"`
}

func (r *ProviderRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	if r.Name == "" {
		return models.ErrEmptyName()
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}

	seenClaims := make(map[string]struct{}, len(r.Claims))
	for i := range r.Claims {
		c := &r.Claims[i]
		c.LocalClaim = strings.TrimSpace(c.LocalClaim)
		c.IDVPClaim = strings.TrimSpace(c.IDVPClaim)
		if c.LocalClaim == "" || c.IDVPClaim == "" {
			return dErrors.New(dErrors.CodeValidation, "claims require localClaim and idvpClaim")
		}
		if _, dup := seenClaims[c.LocalClaim]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate local claim %s", c.LocalClaim))
		}
		seenClaims[c.LocalClaim] = struct{}{}
	}

	seenKeys := make(map[string]struct{}, len(r.ConfigProperties))
	for i := range r.ConfigProperties {
		p := &r.ConfigProperties[i]
		p.Key = strings.TrimSpace(p.Key)
		if p.Key == "" {
			return dErrors.New(dErrors.CodeValidation, "configProperties require a key")
		}
		if _, dup := seenKeys[p.Key]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate config property %s", p.Key))
		}
		seenKeys[p.Key] = struct{}{}
	}
	return nil
}

// ToModel converts the request to a provider. A missing isEnabled means enabled.
func (r *ProviderRequest) ToModel() *models.Provider {
	enabled := true
	if r.IsEnabled != nil {
		enabled = *r.IsEnabled
	}
	p := &models.Provider{
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Enabled:     enabled,
	}
	if len(r.Claims) > 0 {
		p.ClaimMappings = make(map[string]string, len(r.Claims))
		for _, c := range r.Claims {
			p.ClaimMappings[c.LocalClaim] = c.IDVPClaim
		}
	}
	for _, prop := range r.ConfigProperties {
		p.ConfigProperties = append(p.ConfigProperties, models.ConfigProperty{
			Name:         prop.Key,
			Value:        prop.Value,
			Confidential: prop.IsSecret,
		})
	}
	return p
}
