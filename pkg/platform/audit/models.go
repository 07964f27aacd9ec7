package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to a user's verification record.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers changes to provider credentials and configuration.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a successful write. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	TenantID  int
	// UserID is set for claim events.
	UserID string
	// Subject is the provider or claim UUID the action applied to.
	Subject   string
	Action    string
	Reason    string
	RequestID string
	ActorID   string
}

type AuditEvent string

const (
	// Provider events
	EventProviderCreated AuditEvent = "idvp_created"
	EventProviderUpdated AuditEvent = "idvp_updated"
	EventProviderDeleted AuditEvent = "idvp_deleted"

	// Claim events
	EventClaimsAdded    AuditEvent = "idv_claims_added"
	EventClaimsReplaced AuditEvent = "idv_claims_replaced"
	EventClaimUpdated   AuditEvent = "idv_claim_updated"
	EventClaimDeleted   AuditEvent = "idv_claim_deleted"
	EventClaimsDeleted  AuditEvent = "idv_claims_deleted"

	// Verification events
	EventIdentityVerified AuditEvent = "identity_verified"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventProviderCreated: CategorySecurity,
	EventProviderUpdated: CategorySecurity,
	EventProviderDeleted: CategorySecurity,

	EventClaimsAdded:      CategoryCompliance,
	EventClaimsReplaced:   CategoryCompliance,
	EventClaimUpdated:     CategoryCompliance,
	EventClaimDeleted:     CategoryCompliance,
	EventClaimsDeleted:    CategoryCompliance,
	EventIdentityVerified: CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
