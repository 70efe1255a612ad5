package httpapi

import (
	"net/http"

	"matchday.app/internal/apperr"
	"matchday.app/internal/audit"
	"matchday.app/internal/pipeline"
	"matchday.app/internal/session"
)

type profileEditRequest struct {
	Name         string `json:"name,omitempty"`
	AddLeague    int64  `json:"add_league,omitempty"`
	RemoveLeague int64  `json:"remove_league,omitempty"`
	AddClub      int64  `json:"add_club,omitempty"`
	RemoveClub   int64  `json:"remove_club,omitempty"`
}

// handleProfileEdit applies self-service profile changes. Claims are a
// snapshot, so any change that feeds the token (name, favorites) revokes
// every session of the login; the client reconnects and the fresh token
// carries the new snapshot.
func (a *API) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return
	}
	var req profileEditRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}
	if req.Name == "" && req.AddLeague == 0 && req.RemoveLeague == 0 &&
		req.AddClub == 0 && req.RemoveClub == 0 {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}

	if req.Name != "" {
		if err := a.deps.Identities.UpdateName(r.Context(), claims.UUID, req.Name); err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
	}
	if req.AddLeague != 0 {
		if err := a.deps.Identities.AddFavoriteLeague(r.Context(), claims.UserID, req.AddLeague); err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
	}
	if req.RemoveLeague != 0 {
		if err := a.deps.Identities.RemoveFavoriteLeague(r.Context(), claims.UserID, req.RemoveLeague); err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
	}
	if req.AddClub != 0 {
		if err := a.deps.Identities.AddFavoriteClub(r.Context(), claims.UserID, req.AddClub); err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
	}
	if req.RemoveClub != 0 {
		if err := a.deps.Identities.RemoveFavoriteClub(r.Context(), claims.UserID, req.RemoveClub); err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
	}

	if err := a.deps.Sessions.RevokeAll(r.Context(), claims.Login); err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.profile_edited", map[string]any{
		"login": claims.Login,
	})
	http.SetCookie(w, pipeline.ExpiredSessionCookie(a.cfg.SessionCookie))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "updated",
		"redirect": "/login",
	})
}
