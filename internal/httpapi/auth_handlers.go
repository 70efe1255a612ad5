package httpapi

import (
	"errors"
	"net/http"
	"time"

	"matchday.app/internal/apperr"
	"matchday.app/internal/identity"
	"matchday.app/internal/obs"
	"matchday.app/internal/pipeline"
	"matchday.app/internal/session"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signupRequest struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleLogin emits a session token for valid credentials. Every outcome,
// success included, responds only after the uniform delay so timing leaks
// nothing about which branch was taken.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	start := time.Now()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}

	token, ok, err := a.deps.Sessions.Emit(r.Context(), req.Login, req.Password)
	a.sleep(r.Context(), a.cfg.LoginDelay-time.Since(start))

	var notAuth *session.NotAuthorizedError
	switch {
	case errors.As(err, &notAuth):
		apperr.Render(w, apperr.New(apperr.NotAuthorized, notAuth.Login))
	case err != nil:
		apperr.Render(w, apperr.WrapStore(err))
	case !ok:
		apperr.Render(w, apperr.New(apperr.NotFound, ""))
	default:
		obs.SessionIssued()
		http.SetCookie(w, pipeline.SessionCookie(a.cfg.SessionCookie, token, a.cfg.SessionTTL))
		writeJSON(w, http.StatusOK, map[string]any{"status": "connected"})
	}
}

// handleLogout revokes the presented token and removes the cookie. A
// missing or already-invalid cookie still clears client state; there is
// nothing left to revoke.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(a.cfg.SessionCookie); err == nil {
		if err := a.deps.Sessions.Logout(r.Context(), cookie.Value); err != nil && !errors.Is(err, session.ErrIllegalToken) {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
		obs.SessionRevoked()
	}
	http.SetCookie(w, pipeline.ExpiredSessionCookie(a.cfg.SessionCookie))
	writeJSON(w, http.StatusOK, map[string]any{"status": "disconnected"})
}

// handleSignup registers a new identity, unauthorized until an admin
// grants access.
func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil || req.Login == "" || req.Name == "" || req.Password == "" {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}

	exists, err := a.deps.Identities.LoginExists(r.Context(), req.Login)
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	if exists {
		apperr.Render(w, apperr.New(apperr.BadRequest, req.Login))
		return
	}
	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		apperr.Render(w, apperr.Wrap(apperr.Internal, err))
		return
	}
	if err := a.deps.Identities.Insert(r.Context(), req.Login, req.Name, hash); err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "registered"})
}

func (a *API) handleCookiesInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cookies": []string{a.cfg.SessionCookie, a.cfg.ConsentCookie},
		"approve": "/cookies/approve",
	})
}

// handleCookiesApprove sets the consent cookie; from then on the consent
// gate lets the client through.
func (a *API) handleCookiesApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.ConsentCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "approved"})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	apperr.Render(w, apperr.New(apperr.BadRequest, ""))
}
