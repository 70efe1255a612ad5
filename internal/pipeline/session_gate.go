package pipeline

import (
	"context"
	"net/http"

	"matchday.app/internal/apperr"
	"matchday.app/internal/obs"
	"matchday.app/internal/session"
)

// Validator is the combined validity predicate: signature verifies AND the
// token is a registry member.
type Validator interface {
	Validate(ctx context.Context, raw string) (*session.Claims, error)
}

// SessionGate guards routes that require authentication. A missing cookie
// is an internal condition (the route group should not be reachable
// without one); a present but invalid token renders the same illegal-token
// rejection whether the signature is forged or the registry revoked it.
type SessionGate struct {
	validator  Validator
	cookieName string
}

func NewSessionGate(validator Validator, cookieName string) *SessionGate {
	return &SessionGate{validator: validator, cookieName: cookieName}
}

func (g *SessionGate) Name() string { return "session" }

func (g *SessionGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return r, false
	}
	claims, err := g.validator.Validate(r.Context(), cookie.Value)
	if err != nil {
		obs.SessionRejected()
		apperr.Render(w, apperr.New(apperr.IllegalToken, ""))
		return r, false
	}
	ctx := session.ContextWithClaims(r.Context(), claims)
	ctx = session.ContextWithToken(ctx, cookie.Value)
	return r.WithContext(ctx), true
}
