package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
)

// InvitationRepository is the single source of truth for invitation
// validity. All lifecycle writes, from either the organization side or
// the public portal side, go through Transition.
type InvitationRepository interface {
	// Create inserts a pending invitation. It fails with
	// domain.ErrConflict if the assessment already has an active
	// (pending/accessed, unexpired) invitation; uniqueness is enforced
	// in the store, not in process, so it holds across instances.
	Create(ctx context.Context, inv *domain.Invitation) error
	// CreateWithShadow inserts the vendor shadow assessment, one
	// not_assessed item per org item, and the pending invitation in a
	// single transaction, so a lost issue race commits nothing.
	// Conflict semantics match Create.
	CreateWithShadow(ctx context.Context, inv *domain.Invitation, shadow *domain.Assessment, orgItems []domain.AssessmentItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	// GetByAssessment returns the most recently sent invitation for an
	// organization assessment, regardless of state.
	GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Invitation, error)
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	// Transition applies a lifecycle event as one atomic conditional
	// update keyed by the token. Terminal states (completed, revoked,
	// or expired at read time) reject every event.
	Transition(ctx context.Context, token string, event domain.InvitationEvent, now time.Time) (*domain.Invitation, error)
	// SupersedeExpired revokes an expired invitation still stored as
	// pending/accessed, freeing the assessment's active slot so a fresh
	// invitation can be issued. A no-op when nothing qualifies.
	SupersedeExpired(ctx context.Context, orgAssessmentID uuid.UUID, now time.Time) error
	// ListExpiring returns active invitations whose expiry falls inside
	// the window and which have not been reminded yet.
	ListExpiring(ctx context.Context, now time.Time, window time.Duration) ([]domain.Invitation, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AssessmentRepository covers the slice of the assessment service this
// subsystem needs: reading org assessments and owning the vendor shadow
// assessment lifecycle.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error)
	ListItems(ctx context.Context, assessmentID uuid.UUID) ([]domain.AssessmentItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.AssessmentItem, error)
	UpdateItem(ctx context.Context, item *domain.AssessmentItem) error
	// ResetItems wipes every item of an assessment back to not_assessed
	// with empty notes. Used when reissuing discards prior answers.
	ResetItems(ctx context.Context, assessmentID uuid.UUID) error
}
