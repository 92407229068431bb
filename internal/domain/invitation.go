package domain

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccessed  InvitationStatus = "accessed"
	InvitationStatusCompleted InvitationStatus = "completed"
	// InvitationStatusExpired is never stored; it is the effective status
	// once the expiry timestamp has passed.
	InvitationStatusExpired InvitationStatus = "expired"
	InvitationStatusRevoked InvitationStatus = "revoked"
)

// InvitationEvent is a lifecycle transition request on an invitation.
type InvitationEvent string

const (
	EventAccess   InvitationEvent = "access"
	EventComplete InvitationEvent = "complete"
	EventRevoke   InvitationEvent = "revoke"
)

// Invitation is the magic-link record tying a vendor contact to an
// organization assessment and the vendor's shadow assessment. Rows are
// never deleted, only transitioned, so the audit trail survives revocation.
type Invitation struct {
	ID                 uuid.UUID        `json:"id"`
	OrgAssessmentID    uuid.UUID        `json:"org_assessment_id"`
	VendorAssessmentID uuid.UUID        `json:"vendor_assessment_id"`
	AccessToken        string           `json:"-"`
	VendorEmail        string           `json:"vendor_email"`
	VendorName         *string          `json:"vendor_name,omitempty"`
	Message            *string          `json:"message,omitempty"`
	Status             InvitationStatus `json:"status"`
	ExpiresAt          time.Time        `json:"expires_at"`
	SentAt             time.Time        `json:"sent_at"`
	AccessedAt         *time.Time       `json:"accessed_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	RevokedAt          *time.Time       `json:"revoked_at,omitempty"`
	RemindedAt         *time.Time       `json:"reminded_at,omitempty"`
}

// Expired reports whether the invitation's link lifetime has passed.
// Expiry is always derived from the timestamp, never from stored status.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EffectiveStatus is the stored status with lazy expiry applied on top.
// A completed or revoked invitation stays completed/revoked even after
// the expiry timestamp passes.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	switch i.Status {
	case InvitationStatusCompleted, InvitationStatusRevoked:
		return i.Status
	}
	if i.Expired(now) {
		return InvitationStatusExpired
	}
	return i.Status
}

// Active reports whether the invitation still occupies its assessment's
// single active slot: pending or accessed and not yet expired.
func (i *Invitation) Active(now time.Time) bool {
	s := i.EffectiveStatus(now)
	return s == InvitationStatusPending || s == InvitationStatusAccessed
}

// Terminal reports whether no further transitions are accepted.
func (i *Invitation) Terminal(now time.Time) bool {
	return !i.Active(now)
}
