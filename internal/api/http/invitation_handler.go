package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/service"
)

// InvitationHandler serves the organization-authenticated invitation
// endpoints: issue, revoke, inspect, and the comparison view.
type InvitationHandler struct {
	invitations service.InvitationService
	comparisons service.ComparisonService
}

func NewInvitationHandler(invitations service.InvitationService, comparisons service.ComparisonService) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		comparisons: comparisons,
	}
}

type issueInvitationRequest struct {
	OrgAssessmentID uuid.UUID `json:"organization_assessment_id"`
	VendorEmail     string    `json:"vendor_contact_email"`
	VendorName      *string   `json:"vendor_contact_name,omitempty"`
	Message         *string   `json:"message,omitempty"`
	TokenExpiryDays int       `json:"token_expiry_days"`
}

type issueInvitationResponse struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	AccessToken  string    `json:"access_token"`
	MagicLink    string    `json:"magic_link"`
	EmailSent    bool      `json:"email_sent"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (h *InvitationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	result, err := h.invitations.Issue(r.Context(), service.IssueRequest{
		OrgAssessmentID: req.OrgAssessmentID,
		VendorEmail:     req.VendorEmail,
		VendorName:      req.VendorName,
		Message:         req.Message,
		ExpiryDays:      req.TokenExpiryDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueInvitationResponse{
		InvitationID: result.Invitation.ID,
		AccessToken:  result.AccessToken,
		MagicLink:    result.MagicLink,
		EmailSent:    result.EmailSent,
		ExpiresAt:    result.Invitation.ExpiresAt,
	})
}

type revokeResponse struct {
	Success   bool       `json:"success"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["invitation_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed invitation id"})
		return
	}

	inv, err := h.invitations.Revoke(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, revokeResponse{Success: true, RevokedAt: inv.RevokedAt})
}

type invitationView struct {
	*domain.Invitation
	// EffectiveStatus layers lazy expiry on top of the stored status.
	EffectiveStatus domain.InvitationStatus `json:"effective_status"`
}

func (h *InvitationHandler) GetByAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["assessment_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed assessment id"})
		return
	}

	inv, err := h.invitations.GetByAssessment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitationView{
		Invitation:      inv,
		EffectiveStatus: inv.EffectiveStatus(time.Now()),
	})
}

func (h *InvitationHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["assessment_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed assessment id"})
		return
	}

	result, err := h.comparisons.Compare(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
