package models

import (
	dErrors "idvmgt/pkg/domain-errors"
)

// Product codes returned to API clients.
const (
	ReasonAlreadyExists       = "IDVP-60000"
	ReasonEmptyID             = "IDVP-60001"
	ReasonEmptyName           = "IDVP-60002"
	ReasonInvalidRequest      = "IDVP-60003"
	ReasonNotFound            = "IDVP-60004"
	ReasonRetrievingProviders = "IDVP-65000"
	ReasonRetrievingProvider  = "IDVP-65001"
	ReasonRetrievingConfigs   = "IDVP-65002"
	ReasonRetrievingClaims    = "IDVP-65003"
	ReasonAdding              = "IDVP-65004"
	ReasonDeleting            = "IDVP-65005"
	ReasonCounting            = "IDVP-65006"
	ReasonRetrievingSecrets   = "IDVP-65007"
	ReasonAddingConfigs       = "IDVP-65008"
	ReasonStoringSecrets      = "IDVP-65009"
	ReasonAddingClaims        = "IDVP-65010"
	ReasonDeletingConfigs     = "IDVP-65011"
	ReasonDeletingClaims      = "IDVP-65012"
	ReasonUpdating            = "IDVP-65013"
	ReasonNoStore             = "IDVP-65014"
)

func ErrAlreadyExists(name string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeConflict, ReasonAlreadyExists,
		"Identity Verification Provider already exists.",
		"An Identity Verification Provider already exists with the name: %s.", name)
}

func ErrEmptyID() *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonEmptyID,
		"Empty Identity Verification Provider ID.",
		"Identity Verification Provider ID value is empty.")
}

func ErrEmptyName() *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonEmptyName,
		"Empty Identity Verification Provider name.",
		"Identity Verification Provider Name is empty.")
}

func ErrTypeChange() *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonInvalidRequest,
		"Unable to update Identity Verification Provider.",
		"Updating Identity Verification Provider Type is not allowed.")
}

// ErrInvalidFilter reports an unparseable or unsupported filter.
func ErrInvalidFilter(detail string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonInvalidRequest,
		"Invalid filter.",
		"Error while retrieving Identity Verification Providers: %s.", detail)
}

func ErrNotFound(id string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeNotFound, ReasonNotFound,
		"Identity Verification Provider not found.",
		"Identity Verification Provider: %s is not found.", id)
}

// ErrInvalidPagination reports a negative limit or offset.
func ErrInvalidPagination(detail string) *dErrors.Error {
	return dErrors.Catalogued(dErrors.CodeBadRequest, ReasonRetrievingProviders,
		"Invalid pagination.", "%s", detail)
}

// ServerError builds a catalogued internal error with an optional subject.
func ServerError(reason string, cause error, args ...any) *dErrors.Error {
	format, ok := serverMessages[reason]
	if !ok {
		format = "Unexpected error in Identity Verification Provider management."
	}
	return dErrors.Catalogued(dErrors.CodeInternal, reason, "Server error.", format, args...).WithCause(cause)
}

var serverMessages = map[string]string{
	ReasonRetrievingProviders: "An error occurred while retrieving Identity Verification Providers.",
	ReasonRetrievingProvider:  "An error occurred while retrieving Identity Verification Provider: %s",
	ReasonRetrievingConfigs:   "An error occurred while retrieving configs of Identity Verification Provider: %s.",
	ReasonRetrievingClaims:    "An error occurred while retrieving the claims of Identity Verification Provider: %s.",
	ReasonAdding:              "Error while adding Identity Verification Provider.",
	ReasonDeleting:            "An error occurred while deleting Identity Verification Provider: %s.",
	ReasonCounting:            "An error occurred while getting the count of Identity Verification Providers in tenant: %d.",
	ReasonRetrievingSecrets:   "An error occurred while retrieving secrets of Identity Verification Provider: %s.",
	ReasonAddingConfigs:       "An error occurred while adding configs of Identity Verification Provider: %s.",
	ReasonStoringSecrets:      "An error occurred while storing secrets of Identity Verification Provider: %s.",
	ReasonAddingClaims:        "An error occurred while adding claims of Identity Verification Provider: %s.",
	ReasonDeletingConfigs:     "An error occurred while deleting configs of Identity Verification Provider: %s.",
	ReasonDeletingClaims:      "An error occurred while deleting claims of Identity Verification Provider: %s.",
	ReasonUpdating:            "Error while updating Identity Verification Provider.",
	ReasonNoStore:             "No IdV Provider DAOs are registered.",
}
