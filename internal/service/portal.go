package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/security"
)

// Gateway error strings exposed to untrusted callers. Internal error
// kinds collapse to these three so a probing caller learns nothing
// beyond the link being unusable.
const (
	portalErrInvalid = "invalid token"
	portalErrExpired = "expired"
	portalErrRevoked = "revoked"
)

type portalService struct {
	invRepo        repository.InvitationRepository
	assessRepo     repository.AssessmentRepository
	emailSvc       EmailService
	tokens         security.TokenManager
	sessionTTL     time.Duration
	orgNotifyEmail string
	now            func() time.Time
}

func NewPortalService(invRepo repository.InvitationRepository, assessRepo repository.AssessmentRepository, emailSvc EmailService, tokens security.TokenManager, sessionTTL time.Duration, orgNotifyEmail string) PortalService {
	return &portalService{
		invRepo:        invRepo,
		assessRepo:     assessRepo,
		emailSvc:       emailSvc,
		tokens:         tokens,
		sessionTTL:     sessionTTL,
		orgNotifyEmail: orgNotifyEmail,
		now:            time.Now,
	}
}

// Validate is the single unauthenticated write path in the system. It
// never mutates anything on failure: an expired or revoked link leaves
// the stored record exactly as it was.
func (s *portalService) Validate(ctx context.Context, token string) (*ValidationResult, error) {
	inv, err := s.invRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ValidationResult{Valid: false, Error: portalErrInvalid}, nil
		}
		return nil, err
	}

	now := s.now()
	switch inv.EffectiveStatus(now) {
	case domain.InvitationStatusRevoked:
		return &ValidationResult{Valid: false, Error: portalErrRevoked}, nil
	case domain.InvitationStatusExpired:
		return &ValidationResult{Valid: false, Error: portalErrExpired}, nil
	case domain.InvitationStatusCompleted:
		// Completed links stay valid for a read-only replay of the
		// submitted answers.
		return s.validResult(ctx, inv, now, true)
	}

	// pending or accessed: record the access. Idempotent, and racing a
	// revoke is settled by the store's conditional update; re-read and
	// classify if we lost.
	accessed, err := s.invRepo.Transition(ctx, token, domain.EventAccess, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExpired):
			return &ValidationResult{Valid: false, Error: portalErrExpired}, nil
		case errors.Is(err, domain.ErrTerminalState):
			current, getErr := s.invRepo.GetByToken(ctx, token)
			if getErr != nil {
				return &ValidationResult{Valid: false, Error: portalErrInvalid}, nil
			}
			if current.Status == domain.InvitationStatusCompleted {
				return s.validResult(ctx, current, now, true)
			}
			return &ValidationResult{Valid: false, Error: portalErrRevoked}, nil
		case errors.Is(err, domain.ErrNotFound):
			return &ValidationResult{Valid: false, Error: portalErrInvalid}, nil
		}
		return nil, err
	}

	logger.Info("Vendor portal access", "invitation_id", accessed.ID, "token", logger.Token(token))
	return s.validResult(ctx, accessed, now, false)
}

func (s *portalService) validResult(ctx context.Context, inv *domain.Invitation, now time.Time, readOnly bool) (*ValidationResult, error) {
	assessment, err := s.assessRepo.GetByID(ctx, inv.VendorAssessmentID)
	if err != nil {
		return nil, err
	}

	// The session outlives neither its configured TTL nor the link.
	// Completed invitations already outlive expiry, so read-only replays
	// keep the full configured TTL instead of a negative remainder.
	ttl := s.sessionTTL
	if !readOnly {
		if remaining := inv.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	session, err := s.tokens.GenerateVendorSession(inv.ID.String(), inv.VendorAssessmentID.String(), ttl)
	if err != nil {
		return nil, err
	}

	name := ""
	if inv.VendorName != nil {
		name = *inv.VendorName
	}
	return &ValidationResult{
		Valid:        true,
		ReadOnly:     readOnly,
		Invitation:   inv,
		Assessment:   assessment,
		VendorName:   name,
		SessionToken: session,
	}, nil
}

// resolve re-checks the invitation against the store on every portal
// call; a session cookie alone is never trusted past a revocation. A
// presented session must belong to this invitation: a valid session
// minted for another invitation is rejected outright, while a garbled
// or expired one is ignored and the path token remains the credential
// of record.
func (s *portalService) resolve(ctx context.Context, token, session string) (*domain.Invitation, error) {
	inv, err := s.invRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session != "" {
		if claims, serr := s.tokens.ValidateVendorSession(session); serr == nil && claims.InvitationID != inv.ID.String() {
			return nil, fmt.Errorf("session does not match invitation: %w", domain.ErrNotFound)
		}
	}
	switch inv.EffectiveStatus(s.now()) {
	case domain.InvitationStatusRevoked:
		return nil, fmt.Errorf("invitation is revoked: %w", domain.ErrTerminalState)
	case domain.InvitationStatusExpired:
		return nil, fmt.Errorf("invitation link: %w", domain.ErrExpired)
	}
	return inv, nil
}

func (s *portalService) ListItems(ctx context.Context, token, session string) ([]domain.AssessmentItem, error) {
	inv, err := s.resolve(ctx, token, session)
	if err != nil {
		return nil, err
	}
	// Completed invitations may still read: the vendor replays their
	// submitted answers. Only the shadow assessment is ever exposed.
	return s.assessRepo.ListItems(ctx, inv.VendorAssessmentID)
}

func (s *portalService) UpdateItem(ctx context.Context, token, session string, itemID uuid.UUID, status domain.ItemStatus, notes *string) (*domain.AssessmentItem, error) {
	inv, err := s.resolve(ctx, token, session)
	if err != nil {
		return nil, err
	}
	if inv.EffectiveStatus(s.now()) == domain.InvitationStatusCompleted {
		return nil, fmt.Errorf("invitation is completed, items are read-only: %w", domain.ErrTerminalState)
	}

	item, err := s.assessRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.AssessmentID != inv.VendorAssessmentID {
		// Item exists but belongs to someone else's assessment; to this
		// caller it does not exist.
		return nil, fmt.Errorf("assessment item %s: %w", itemID, domain.ErrNotFound)
	}

	item.Status = status
	if notes != nil {
		item.Notes = *notes
	}
	item.UpdatedOn = s.now()
	if err := s.assessRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *portalService) Complete(ctx context.Context, token, session string) (time.Time, error) {
	// The session cross-check happens before the transition; the
	// conditional update still settles any race on its own.
	if _, err := s.resolve(ctx, token, session); err != nil {
		return time.Time{}, err
	}

	inv, err := s.invRepo.Transition(ctx, token, domain.EventComplete, s.now())
	if err != nil {
		return time.Time{}, err
	}

	logger.Info("Vendor completed self-assessment", "invitation_id", inv.ID, "completed_at", inv.CompletedAt)

	if s.orgNotifyEmail != "" {
		orgAssessment, getErr := s.assessRepo.GetByID(ctx, inv.OrgAssessmentID)
		name := ""
		if getErr == nil {
			name = orgAssessment.Name
		}
		if mailErr := s.emailSvc.SendCompletionNotice(ctx, s.orgNotifyEmail, inv, name); mailErr != nil {
			logger.Warn("Failed to send completion notice", "invitation_id", inv.ID, "error", mailErr)
		}
	}

	return *inv.CompletedAt, nil
}
