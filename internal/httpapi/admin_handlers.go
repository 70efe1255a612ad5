package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"matchday.app/internal/apperr"
	"matchday.app/internal/audit"
	"matchday.app/internal/betting"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/identity"
	"matchday.app/internal/session"
)

type adminUserRequest struct {
	UUID string `json:"uuid"`
	// Action is one of authorize, revoke, role, delete.
	Action string `json:"action"`
	Role   int    `json:"role,omitempty"`
}

type adminSeasonRequest struct {
	// Action is one of create, close, main, settle.
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
	ID     int64  `json:"id,omitempty"`
	// Settle payload: the fixture and its final result.
	FixtureID int64 `json:"fixture_id,omitempty"`
	Result    int   `json:"result,omitempty"`
}

// handleAdminUsers lists and mutates identities below the actor's role.
// Every mutation revokes all the subject's sessions: claims are immutable,
// so a permission change only takes effect by killing the old tokens.
func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r, claims)
	case http.MethodPost:
		a.mutateUser(w, r, claims)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request, claims *session.Claims) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	users, err := a.deps.Identities.List(r.Context(), claims.Role, page, perPage, q.Get("login"))
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}

	type userRow struct {
		UUID       string `json:"uuid"`
		Login      string `json:"login"`
		Name       string `json:"name"`
		Authorized bool   `json:"authorized"`
		Role       int    `json:"role"`
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			UUID:       u.UUID,
			Login:      u.Login,
			Name:       u.Name,
			Authorized: u.Authorized,
			Role:       u.Role,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": rows, "page": page})
}

func (a *API) mutateUser(w http.ResponseWriter, r *http.Request, claims *session.Claims) {
	var req adminUserRequest
	if err := decodeJSON(r, &req); err != nil || req.UUID == "" {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}

	subject, err := a.deps.Identities.FindByUUID(r.Context(), req.UUID)
	if errors.Is(err, identity.ErrNotFound) {
		apperr.Render(w, apperr.New(apperr.NotFound, req.UUID))
		return
	}
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	// The ceiling is strict: an actor never manages a peer or a superior,
	// itself included.
	if !identity.CanManage(claims.Role, subject.Role) {
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
		return
	}

	switch req.Action {
	case "authorize":
		err = a.deps.Identities.SetAuthorized(r.Context(), req.UUID, true)
	case "revoke":
		err = a.deps.Identities.SetAuthorized(r.Context(), req.UUID, false)
	case "role":
		if !identity.CanManage(claims.Role, req.Role) {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		err = a.deps.Identities.SetRole(r.Context(), req.UUID, req.Role)
	case "delete":
		err = a.deps.Identities.Delete(r.Context(), req.UUID)
	default:
		apperr.Render(w, apperr.New(apperr.BadRequest, req.Action))
		return
	}
	if errors.Is(err, identity.ErrNotFound) {
		apperr.Render(w, apperr.New(apperr.NotFound, req.UUID))
		return
	}
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}

	// The mutation is not complete until the subject's sessions are dead;
	// a failed revoke propagates rather than leaving stale tokens valid.
	if err := a.deps.Sessions.RevokeAll(r.Context(), subject.Login); err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.admin_"+req.Action, map[string]any{
		"subject": subject.Login,
		"role":    req.Role,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "done"})
}

// handleAdminSeasons lists and mutates seasons.
func (a *API) handleAdminSeasons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		seasons, err := a.deps.Bets.Seasons(r.Context())
		if err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"seasons": seasons})

	case http.MethodPost:
		var req adminSeasonRequest
		if err := decodeJSON(r, &req); err != nil {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		var err error
		switch req.Action {
		case "create":
			if req.Name == "" {
				apperr.Render(w, apperr.New(apperr.BadRequest, ""))
				return
			}
			var id int64
			id, err = a.deps.Bets.CreateSeason(r.Context(), req.Name)
			if err == nil {
				_ = audit.LogEvent(r.Context(), "season.created", map[string]any{"name": req.Name, "id": id})
				writeJSON(w, http.StatusCreated, map[string]any{"id": id})
				return
			}
		case "close":
			err = a.deps.Bets.CloseSeason(r.Context(), req.ID)
		case "main":
			err = a.deps.Bets.SetMainSeason(r.Context(), req.ID)
		case "settle":
			result := fixtures.GameResult(req.Result)
			if req.FixtureID == 0 ||
				(result != fixtures.ResultWin && result != fixtures.ResultDraw && result != fixtures.ResultLoss) {
				apperr.Render(w, apperr.New(apperr.BadRequest, ""))
				return
			}
			var n int64
			n, err = a.deps.Bets.Settle(r.Context(), req.FixtureID, result)
			if err == nil {
				_ = audit.LogEvent(r.Context(), "season.settled", map[string]any{
					"fixture": req.FixtureID,
					"bets":    n,
				})
				writeJSON(w, http.StatusOK, map[string]any{"settled": n})
				return
			}
		default:
			apperr.Render(w, apperr.New(apperr.BadRequest, req.Action))
			return
		}
		if errors.Is(err, betting.ErrNotFound) {
			apperr.Render(w, apperr.New(apperr.NotFound, ""))
			return
		}
		if err != nil {
			apperr.Render(w, apperr.WrapStore(err))
			return
		}
		_ = audit.LogEvent(r.Context(), "season."+req.Action, map[string]any{"id": req.ID})
		writeJSON(w, http.StatusOK, map[string]any{"status": "done"})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}
