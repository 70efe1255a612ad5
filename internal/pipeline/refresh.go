package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"matchday.app/internal/apperr"
	"matchday.app/internal/obs"
	"matchday.app/internal/session"
)

// Refresher swaps a due token for a fresh one and re-validates it.
type Refresher interface {
	Refresh(ctx context.Context, raw string) (string, error)
	Validate(ctx context.Context, raw string) (*session.Claims, error)
}

// RefreshGate replaces a verified token whose refresh-due timestamp has
// passed. Must run after the session gate so the claims are already
// trusted. The replacement is transparent: the response carries the new
// cookie and downstream stages see the new claims.
type RefreshGate struct {
	refresher  Refresher
	cookieName string
	cookieTTL  time.Duration
	now        func() time.Time
}

func NewRefreshGate(refresher Refresher, cookieName string, cookieTTL time.Duration) *RefreshGate {
	return &RefreshGate{
		refresher:  refresher,
		cookieName: cookieName,
		cookieTTL:  cookieTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source; only intended for tests.
func (g *RefreshGate) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

func (g *RefreshGate) Name() string { return "refresh" }

func (g *RefreshGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		return r, true
	}
	if !claims.NeedsRefresh(g.now()) {
		return r, true
	}
	raw, ok := session.TokenFromContext(r.Context())
	if !ok {
		return r, true
	}

	fresh, err := g.refresher.Refresh(r.Context(), raw)
	if errors.Is(err, session.ErrIllegalToken) {
		apperr.Render(w, apperr.New(apperr.IllegalToken, ""))
		return r, false
	}
	if err != nil {
		apperr.Render(w, err)
		return r, false
	}
	newClaims, err := g.refresher.Validate(r.Context(), fresh)
	if err != nil {
		apperr.Render(w, apperr.New(apperr.IllegalToken, ""))
		return r, false
	}

	obs.SessionRefreshed()
	http.SetCookie(w, SessionCookie(g.cookieName, fresh, g.cookieTTL))
	ctx := session.ContextWithClaims(r.Context(), newClaims)
	ctx = session.ContextWithToken(ctx, fresh)
	return r.WithContext(ctx), true
}

// SessionCookie builds the session cookie with its required attributes:
// HTTP-only, secure, scoped to the whole site.
func SessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredSessionCookie removes the session cookie immediately.
func ExpiredSessionCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
