package handler

import (
	"strings"

	"idvmgt/internal/idv/models"
	dErrors "idvmgt/pkg/domain-errors"
	platformstrings "idvmgt/pkg/platform/strings"
)

// ClaimRequest is one entry of an add or replace call.
type ClaimRequest struct {
	URI        string         `json:"uri"`
	ProviderID string         `json:"idvpId"`
	IsVerified bool           `json:"isVerified"`
	Metadata   map[string]any `json:"claimMetadata"`
}

// ClaimsRequest is the body of add and replace calls. Claim level checks
// happen in the manager so every failure carries its product code.
type ClaimsRequest []ClaimRequest

func (r *ClaimsRequest) Validate() error {
	for i := range *r {
		c := &(*r)[i]
		c.URI = strings.TrimSpace(c.URI)
		c.ProviderID = strings.TrimSpace(c.ProviderID)
	}
	return nil
}

func (r ClaimsRequest) ToModels() []*models.Claim {
	out := make([]*models.Claim, 0, len(r))
	for _, c := range r {
		out = append(out, &models.Claim{
			ClaimURI:   c.URI,
			ProviderID: c.ProviderID,
			IsVerified: c.IsVerified,
			Metadata:   c.Metadata,
		})
	}
	return out
}

// ClaimUpdateRequest changes the verification state of one claim.
type ClaimUpdateRequest struct {
	IsVerified *bool          `json:"isVerified"`
	Metadata   map[string]any `json:"claimMetadata"`
}

func (r *ClaimUpdateRequest) Validate() error {
	if r.IsVerified == nil {
		return dErrors.New(dErrors.CodeValidation, "isVerified is required")
	}
	return nil
}

func (r *ClaimUpdateRequest) ToModel(claimID string) *models.Claim {
	return &models.Claim{UUID: claimID, IsVerified: *r.IsVerified, Metadata: r.Metadata}
}

type VerifyProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// VerifyRequest starts an identity verification. Claims optionally restricts
// the claim URIs to verify.
type VerifyRequest struct {
	ProviderID string           `json:"identityVerificationProvider"`
	Claims     []string         `json:"claims"`
	Properties []VerifyProperty `json:"properties"`
}

func (r *VerifyRequest) Validate() error {
	r.ProviderID = strings.TrimSpace(r.ProviderID)
	if r.ProviderID == "" {
		return models.ErrInvalidProvider("")
	}
	for _, p := range r.Properties {
		if strings.TrimSpace(p.Key) == "" {
			return dErrors.New(dErrors.CodeValidation, "property key is required")
		}
	}
	return nil
}

func (r *VerifyRequest) ToModel() *models.VerifierData {
	data := &models.VerifierData{ProviderID: r.ProviderID}
	for _, uri := range platformstrings.DedupeAndTrim(r.Claims) {
		data.Claims = append(data.Claims, &models.Claim{ClaimURI: uri, ProviderID: r.ProviderID})
	}
	for _, p := range r.Properties {
		data.Properties = append(data.Properties, models.VerifierProperty{Name: strings.TrimSpace(p.Key), Value: p.Value})
	}
	return data
}
