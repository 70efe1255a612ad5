package pipeline

import (
	"net/http"
	"net/url"
	"strings"

	"matchday.app/internal/apperr"
	"matchday.app/internal/session"
)

// SignatureVerifier checks a token's signature and expiry without touching
// the registry. Asset requests are too hot for a registry round trip.
type SignatureVerifier interface {
	Verify(raw string) (*session.Claims, error)
}

// AssetGate protects static assets from hotlinking. Requests outside the
// assets base path pass untouched. Under it, a session cookie is verified
// by signature alone; without one the referer must point at a trusted host
// and an allow-listed page.
type AssetGate struct {
	verifier     SignatureVerifier
	cookieName   string
	basePath     string
	trustedHosts map[string]struct{}
	allowedPages map[string]struct{}
}

func NewAssetGate(verifier SignatureVerifier, cookieName, basePath string, trustedHosts, allowedPages []string) *AssetGate {
	hosts := make(map[string]struct{}, len(trustedHosts))
	for _, h := range trustedHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}
	pages := make(map[string]struct{}, len(allowedPages))
	for _, p := range allowedPages {
		pages[p] = struct{}{}
	}
	return &AssetGate{
		verifier:     verifier,
		cookieName:   cookieName,
		basePath:     basePath,
		trustedHosts: hosts,
		allowedPages: pages,
	}
}

func (g *AssetGate) Name() string { return "assets" }

func (g *AssetGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if !strings.HasPrefix(r.URL.Path, g.basePath) {
		return r, true
	}
	if cookie, err := r.Cookie(g.cookieName); err == nil {
		if _, err := g.verifier.Verify(cookie.Value); err != nil {
			apperr.Render(w, apperr.New(apperr.IllegalToken, ""))
			return r, false
		}
		return r, true
	}
	if g.refererAllowed(r.Header.Get("Referer")) {
		return r, true
	}
	apperr.Render(w, apperr.New(apperr.BadRequest, ""))
	return r, false
}

func (g *AssetGate) refererAllowed(referer string) bool {
	if referer == "" {
		return false
	}
	u, err := url.Parse(referer)
	if err != nil {
		return false
	}
	if _, ok := g.trustedHosts[strings.ToLower(u.Hostname())]; !ok {
		return false
	}
	_, ok := g.allowedPages[u.Path]
	return ok
}
