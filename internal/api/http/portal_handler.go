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

const sessionCookieName = "vendor_session"

// PortalHandler serves the public vendor portal. Every request is
// authenticated by the magic-link token alone; the session cookie set
// on validate lets the portal UI re-validate across reloads without
// keeping the token in script-visible state.
type PortalHandler struct {
	portal     service.PortalService
	sessionTTL time.Duration
}

func NewPortalHandler(portal service.PortalService, sessionTTL time.Duration) *PortalHandler {
	return &PortalHandler{
		portal:     portal,
		sessionTTL: sessionTTL,
	}
}

type validateResponse struct {
	Valid             bool               `json:"valid"`
	Error             string             `json:"error,omitempty"`
	ReadOnly          bool               `json:"read_only,omitempty"`
	Invitation        *portalInvitation  `json:"invitation,omitempty"`
	Assessment        *domain.Assessment `json:"assessment,omitempty"`
	VendorContactName string             `json:"vendor_contact_name,omitempty"`
}

// portalInvitation is the vendor-facing projection of an invitation:
// no token, no organization assessment reference.
type portalInvitation struct {
	Status      domain.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

func (h *PortalHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	result, err := h.portal.Validate(r.Context(), token)
	if err != nil {
		writePortalError(w, err)
		return
	}

	if !result.Valid {
		// Invalid, expired and revoked all answer 200 with valid=false;
		// the status code itself should not distinguish them.
		writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: result.Error})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    true,
		ReadOnly: result.ReadOnly,
		Invitation: &portalInvitation{
			Status:      result.Invitation.Status,
			ExpiresAt:   result.Invitation.ExpiresAt,
			CompletedAt: result.Invitation.CompletedAt,
		},
		Assessment:        result.Assessment,
		VendorContactName: result.VendorName,
	})
}

// sessionFromRequest pulls the vendor session JWT off the cookie set by
// Validate, if the browser sent one back.
func sessionFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *PortalHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	items, err := h.portal.ListItems(r.Context(), token, sessionFromRequest(r))
	if err != nil {
		writePortalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type updateItemRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

func (h *PortalHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token := vars["token"]
	itemID, err := uuid.Parse(vars["item_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed item id"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	status, err := domain.ParseItemStatus(req.Status)
	if err != nil {
		writePortalError(w, err)
		return
	}

	item, err := h.portal.UpdateItem(r.Context(), token, sessionFromRequest(r), itemID, status, req.Notes)
	if err != nil {
		writePortalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

type completeResponse struct {
	CompletedAt time.Time `json:"completed_at"`
}

func (h *PortalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	completedAt, err := h.portal.Complete(r.Context(), token, sessionFromRequest(r))
	if err != nil {
		writePortalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completeResponse{CompletedAt: completedAt})
}
