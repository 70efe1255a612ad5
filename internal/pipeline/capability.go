package pipeline

import (
	"net/http"

	"matchday.app/internal/apperr"
	"matchday.app/internal/session"
)

// CapabilityGate exact-matches the requested path against the verified
// session's capability snapshot. It must run after the session gate.
type CapabilityGate struct{}

func NewCapabilityGate() *CapabilityGate { return &CapabilityGate{} }

func (g *CapabilityGate) Name() string { return "capability" }

func (g *CapabilityGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return r, false
	}
	if !claims.Grants(r.URL.Path) {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return r, false
	}
	return r, true
}
