package handler

import "idvmgt/internal/idv/models"

type ClaimResponse struct {
	ID         string         `json:"id"`
	URI        string         `json:"uri"`
	ProviderID string         `json:"idvpId"`
	IsVerified bool           `json:"isVerified"`
	Metadata   map[string]any `json:"claimMetadata"`
}

type VerifyResponse struct {
	ProviderID string          `json:"identityVerificationProvider"`
	Claims     []ClaimResponse `json:"claims"`
}

func toClaimResponse(c *models.Claim) ClaimResponse {
	return ClaimResponse{
		ID:         c.UUID,
		URI:        c.ClaimURI,
		ProviderID: c.ProviderID,
		IsVerified: c.IsVerified,
		Metadata:   c.Metadata,
	}
}

func toClaimResponses(claims []*models.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, toClaimResponse(c))
	}
	return out
}

func toVerifyResponse(d *models.VerifierData) VerifyResponse {
	return VerifyResponse{ProviderID: d.ProviderID, Claims: toClaimResponses(d.Claims)}
}
