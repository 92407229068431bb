package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/config"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/security"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/service"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Invitations service.InvitationService
	Portal      service.PortalService
	Comparisons service.ComparisonService
	Tokens      security.TokenManager
	Config      *config.Config
}

// NewRouter wires the organization-authenticated routes and the public
// vendor portal routes onto one mux router. The portal subrouter is the
// only unauthenticated surface and sits behind a per-IP rate limiter.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	invitationHandler := NewInvitationHandler(deps.Invitations, deps.Comparisons)
	portalHandler := NewPortalHandler(deps.Portal, deps.Config.VendorSessionTTL())

	// Public vendor portal endpoints. Registered before the organization
	// subrouter: mux descends into the first matching path prefix and
	// does not backtrack.
	limiter := newIPRateLimiter(deps.Config.RateLimit.RequestsPerSecond, deps.Config.RateLimit.Burst)
	portal := r.PathPrefix("/api/v1/portal").Subrouter()
	portal.Use(limiter.middleware)
	portal.HandleFunc("/invitations/validate/{token}", portalHandler.Validate).Methods("GET")
	portal.HandleFunc("/invitations/{token}/items", portalHandler.ListItems).Methods("GET")
	portal.HandleFunc("/invitations/{token}/items/{item_id}", portalHandler.UpdateItem).Methods("PATCH")
	portal.HandleFunc("/invitations/{token}/complete", portalHandler.Complete).Methods("POST")

	// Organization endpoints
	org := r.PathPrefix("/api/v1").Subrouter()
	org.Use(OrgAuth(deps.Tokens))
	org.HandleFunc("/invitations", invitationHandler.Issue).Methods("POST")
	org.HandleFunc("/invitations/{invitation_id}/revoke", invitationHandler.Revoke).Methods("POST")
	org.HandleFunc("/assessments/{assessment_id}/invitation", invitationHandler.GetByAssessment).Methods("GET")
	org.HandleFunc("/assessments/{assessment_id}/comparison", invitationHandler.Comparison).Methods("GET")

	return r
}
