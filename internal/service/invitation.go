package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/security"
)

type invitationService struct {
	invRepo    repository.InvitationRepository
	assessRepo repository.AssessmentRepository
	emailSvc   EmailService
	baseURL    string
	// reissueResetsAnswers wipes prior vendor answers when a fresh
	// invitation reuses an existing shadow assessment.
	reissueResetsAnswers bool
	now                  func() time.Time
}

func NewInvitationService(invRepo repository.InvitationRepository, assessRepo repository.AssessmentRepository, emailSvc EmailService, baseURL string, reissueResetsAnswers bool) InvitationService {
	return &invitationService{
		invRepo:              invRepo,
		assessRepo:           assessRepo,
		emailSvc:             emailSvc,
		baseURL:              strings.TrimRight(baseURL, "/"),
		reissueResetsAnswers: reissueResetsAnswers,
		now:                  time.Now,
	}
}

func (s *invitationService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if req.VendorEmail == "" || !strings.Contains(req.VendorEmail, "@") {
		return nil, fmt.Errorf("vendor contact email is required: %w", domain.ErrValidation)
	}
	if req.ExpiryDays <= 0 {
		return nil, fmt.Errorf("expiry days must be positive, got %d: %w", req.ExpiryDays, domain.ErrValidation)
	}

	assessment, err := s.assessRepo.GetByID(ctx, req.OrgAssessmentID)
	if err != nil {
		return nil, err
	}
	if assessment.Type != domain.AssessmentTypeVendor {
		return nil, fmt.Errorf("assessment %s is of type %q, only vendor assessments accept invitations: %w",
			assessment.ID, assessment.Type, domain.ErrValidation)
	}

	now := s.now()

	// Reissue requires an explicit revoke first; a still-active
	// invitation is a conflict, never a silent overwrite.
	prev, err := s.invRepo.GetByAssessment(ctx, req.OrgAssessmentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if prev != nil && prev.Active(now) {
		return nil, fmt.Errorf("assessment %s already has an active invitation: %w", req.OrgAssessmentID, domain.ErrConflict)
	}
	if prev != nil && prev.Expired(now) &&
		(prev.Status == domain.InvitationStatusPending || prev.Status == domain.InvitationStatusAccessed) {
		// The expired link is dead either way; closing it out frees the
		// assessment's single active slot for the new invitation.
		if err := s.invRepo.SupersedeExpired(ctx, req.OrgAssessmentID, now); err != nil {
			return nil, err
		}
	}

	var shadowID uuid.UUID
	var newShadow *domain.Assessment
	var shadowItems []domain.AssessmentItem
	if prev != nil {
		// Reuse the existing shadow assessment rather than orphaning it.
		shadowID = prev.VendorAssessmentID
		if s.reissueResetsAnswers {
			if err := s.assessRepo.ResetItems(ctx, shadowID); err != nil {
				return nil, err
			}
		}
	} else {
		orgItems, err := s.assessRepo.ListItems(ctx, req.OrgAssessmentID)
		if err != nil {
			return nil, err
		}
		newShadow = &domain.Assessment{
			ID:         uuid.New(),
			Name:       assessment.Name + " (vendor self-assessment)",
			Type:       domain.AssessmentTypeVendorSelf,
			VendorName: assessment.VendorName,
			CreatedOn:  now,
		}
		shadowItems = orgItems
		shadowID = newShadow.ID
	}

	token, err := security.NewAccessToken()
	if err != nil {
		return nil, err
	}

	inv := &domain.Invitation{
		ID:                 uuid.New(),
		OrgAssessmentID:    req.OrgAssessmentID,
		VendorAssessmentID: shadowID,
		AccessToken:        token,
		VendorEmail:        req.VendorEmail,
		VendorName:         req.VendorName,
		Message:            req.Message,
		Status:             domain.InvitationStatusPending,
		ExpiresAt:          now.AddDate(0, 0, req.ExpiryDays),
		SentAt:             now,
	}
	if newShadow != nil {
		// Shadow and invitation commit together: losing the issue race
		// must not strand a vendor_self assessment.
		err = s.invRepo.CreateWithShadow(ctx, inv, newShadow, shadowItems)
	} else {
		err = s.invRepo.Create(ctx, inv)
	}
	if err != nil {
		return nil, err
	}

	magicLink := s.MagicLink(token)

	emailSent := true
	if err := s.emailSvc.SendInvitation(ctx, inv, magicLink, assessment.Name); err != nil {
		// Issuance stands even when delivery fails; the organization
		// still holds the link and can deliver it out of band.
		emailSent = false
		logger.Warn("Failed to send invitation email",
			"invitation_id", inv.ID, "vendor_email", inv.VendorEmail, "error", err)
	}

	logger.Info("Issued vendor invitation",
		"invitation_id", inv.ID,
		"org_assessment_id", inv.OrgAssessmentID,
		"token", logger.Token(token),
		"expires_at", inv.ExpiresAt)

	return &IssueResult{
		Invitation:  inv,
		AccessToken: token,
		MagicLink:   magicLink,
		EmailSent:   emailSent,
	}, nil
}

func (s *invitationService) Revoke(ctx context.Context, invitationID uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.invRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	revoked, err := s.invRepo.Transition(ctx, inv.AccessToken, domain.EventRevoke, s.now())
	if err != nil {
		return nil, err
	}

	logger.Info("Revoked vendor invitation", "invitation_id", revoked.ID, "revoked_at", revoked.RevokedAt)
	return revoked, nil
}

func (s *invitationService) GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Invitation, error) {
	return s.invRepo.GetByAssessment(ctx, assessmentID)
}

// MagicLink builds the vendor-facing URL embedding the access token.
func (s *invitationService) MagicLink(token string) string {
	return s.baseURL + "/" + token
}
