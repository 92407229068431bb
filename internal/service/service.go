package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
)

// IssueRequest carries everything needed to mint a vendor invitation.
type IssueRequest struct {
	OrgAssessmentID uuid.UUID
	VendorEmail     string
	VendorName      *string
	Message         *string
	ExpiryDays      int
}

// IssueResult returns the minted credential exactly once; the access
// token is not retrievable again through any organization endpoint.
type IssueResult struct {
	Invitation  *domain.Invitation
	AccessToken string
	MagicLink   string
	EmailSent   bool
}

type InvitationService interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
	Revoke(ctx context.Context, invitationID uuid.UUID) (*domain.Invitation, error)
	GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Invitation, error)
	// MagicLink builds the vendor-facing URL embedding an access token.
	MagicLink(token string) string
}

// ValidationResult is the uniform shape the public gateway hands to
// untrusted callers. When Valid is false, Error is one of the three
// non-leaking strings: "invalid token", "expired", "revoked".
type ValidationResult struct {
	Valid        bool
	Error        string
	ReadOnly     bool
	Invitation   *domain.Invitation
	Assessment   *domain.Assessment
	VendorName   string
	SessionToken string
}

// PortalService authenticates every call by the magic-link token.
// session, when non-empty, is the vendor session JWT minted by Validate;
// a valid session must belong to the token's invitation, and an invalid
// or expired one falls back to plain token auth.
type PortalService interface {
	Validate(ctx context.Context, token string) (*ValidationResult, error)
	ListItems(ctx context.Context, token, session string) ([]domain.AssessmentItem, error)
	UpdateItem(ctx context.Context, token, session string, itemID uuid.UUID, status domain.ItemStatus, notes *string) (*domain.AssessmentItem, error)
	Complete(ctx context.Context, token, session string) (time.Time, error)
}

type ComparisonService interface {
	Compare(ctx context.Context, orgAssessmentID uuid.UUID) (*domain.ComparisonResult, error)
}

type EmailService interface {
	SendInvitation(ctx context.Context, inv *domain.Invitation, magicLink, assessmentName string) error
	SendExpiryReminder(ctx context.Context, inv *domain.Invitation, magicLink string) error
	SendCompletionNotice(ctx context.Context, to string, inv *domain.Invitation, assessmentName string) error
}
