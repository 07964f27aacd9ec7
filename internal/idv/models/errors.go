package models

import (
	dErrors "idvmgt/pkg/domain-errors"
)

// Product codes returned to API clients.
const (
	ReasonClaimExists          = "IDV-10000"
	ReasonEmptyMetadata        = "IDV-10001"
	ReasonInvalidProvider      = "IDV-10002"
	ReasonInvalidClaimURI      = "IDV-10003"
	ReasonInvalidUser          = "IDV-10004"
	ReasonInvalidClaimID       = "IDV-10005"
	ReasonInvalidVerifier      = "IDV-10006"
	ReasonCheckingExistence    = "IDV-15000"
	ReasonDeleting             = "IDV-15001"
	ReasonRetrievingClaim      = "IDV-15002"
	ReasonUpdating             = "IDV-15003"
	ReasonAddingClaim          = "IDV-15004"
	ReasonAddingClaims         = "IDV-15005"
	ReasonRetrievingClaims     = "IDV-15006"
	ReasonValidatingProvider   = "IDV-15007"
	ReasonCheckingUser         = "IDV-15008"
	ReasonGettingUserStore     = "IDV-15009"
	ReasonRetrievingProvider   = "IDV-15010"
	ReasonRetrievingMappings   = "IDV-15011"
	ReasonNoStore              = "IDV-15012"
	ReasonRetrievingByMetadata = "IDV-15013"
	ReasonUpdatingUserData     = "IDV-15014"
	ReasonUpdatingClaims       = "IDV-15015"
	ReasonDeletingClaims       = "IDV-15016"
	ReasonDeletingClaimData    = "IDV-15017"
)

func ErrClaimExists(userID string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeConflict, ReasonClaimExists,
		"Identity verification claim already exists.",
		"Identity Verification Claim data already exists for the user: %s.", userID)
}

func ErrEmptyMetadata() *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonEmptyMetadata,
		"Empty claim metadata.", "Claim Metadata is empty.")
}

func ErrInvalidProvider(providerID string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonInvalidProvider,
		"Invalid identity verification provider.",
		"Identity Verification Provider: %s not found.", providerID)
}

func ErrInvalidClaimURI(claimURI string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonInvalidClaimURI,
		"Invalid claim URI.", "Claim URI: %s not found.", claimURI)
}

// ErrClaimURINotFound reports a lookup by claim URI that matched nothing.
func ErrClaimURINotFound(claimURI string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeNotFound, ReasonInvalidClaimURI,
		"Claim not found.", "Claim URI: %s not found.", claimURI)
}

func ErrInvalidUser(userID string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeNotFound, ReasonInvalidUser,
		"Invalid user.", "User cannot be found with the user Id: %s.", userID)
}

func ErrInvalidClaimID(claimID string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeNotFound, ReasonInvalidClaimID,
		"Invalid identity verification claim.",
		"Identity verification claim cannot be found with the claim id: %s.", claimID)
}

func ErrInvalidVerifier(providerType string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonInvalidVerifier,
		"Invalid identity verifier.", "Identity Verifier: %s is not registered.", providerType)
}

// ServerError builds a catalogued internal error with optional subject args.
func ServerError(reason string, cause error, args ...any) *dErrors.Error {
	format, ok := serverMessages[reason]
	if !ok {
		format = "Unexpected error in identity verification claim management."
	}
	return dErrors.Catalogued(dErrors.CodeInternal, reason, "Server error.", format, args...).WithCause(cause)
}

var serverMessages = map[string]string{
	ReasonCheckingExistence:    "Error while checking the existence of the Identity Verification Claim.",
	ReasonDeleting:             "Error deleting the Identity Verification Claim.",
	ReasonRetrievingClaim:      "Error retrieving the Identity Verification Claim.",
	ReasonUpdating:             "Error updating the Identity Verification Claim.",
	ReasonAddingClaim:          "Error adding the Identity Verification Claim.",
	ReasonAddingClaims:         "Error adding the Identity Verification Claims.",
	ReasonRetrievingClaims:     "Error retrieving the Identity Verification Claims.",
	ReasonValidatingProvider:   "Error while validating identity verification provider id: %s.",
	ReasonCheckingUser:         "Error while checking the user id existence.",
	ReasonGettingUserStore:     "Error while getting the user store.",
	ReasonRetrievingProvider:   "Error while retrieving identity verification provider.",
	ReasonRetrievingMappings:   "Error while retrieving identity verification claim mappings.",
	ReasonNoStore:              "No IdV Claim DAOs are registered.",
	ReasonRetrievingByMetadata: "Error retrieving the Identity Verification Claims by metadata.",
	ReasonUpdatingUserData:     "Error while updating IDV data of the user %s.",
	ReasonUpdatingClaims:       "Error while updating IDV data of claims of the user %s.",
	ReasonDeletingClaims:       "Error deleting IDV claims of the user %s.",
	ReasonDeletingClaimData:    "Error deleting IDV data of a claim of the user %s.",
}
