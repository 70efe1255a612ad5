package pipeline

import (
	"net/http"

	"matchday.app/internal/apperr"
)

// consentPage is where clients both read about and grant cookie consent.
const consentPage = "/cookies"

// ConsentGate runs first, before any other cookie is read. Without the
// consent cookie the root path redirects to the consent page,
// consent-granting paths pass through and everything else is rejected.
type ConsentGate struct {
	cookieName string
	allowed    map[string]struct{}
}

// NewConsentGate builds the gate. allowPaths are the consent-granting
// paths that stay reachable without the cookie; the consent page itself is
// always included.
func NewConsentGate(cookieName string, allowPaths ...string) *ConsentGate {
	allowed := map[string]struct{}{consentPage: {}}
	for _, p := range allowPaths {
		allowed[p] = struct{}{}
	}
	return &ConsentGate{cookieName: cookieName, allowed: allowed}
}

func (g *ConsentGate) Name() string { return "consent" }

func (g *ConsentGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if _, err := r.Cookie(g.cookieName); err == nil {
		return r, true
	}
	if _, ok := g.allowed[r.URL.Path]; ok {
		return r, true
	}
	if r.URL.Path == "/" {
		http.Redirect(w, r, consentPage, http.StatusFound)
		return r, false
	}
	apperr.Render(w, apperr.New(apperr.CookiesUnapproved, ""))
	return r, false
}
