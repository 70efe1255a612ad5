package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"matchday.app/internal/apperr"
	"matchday.app/internal/betting"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/session"
)

type placeBetRequest struct {
	FixtureID int64   `json:"fixture_id"`
	Result    int     `json:"result"`
	Stake     float64 `json:"stake"`
}

// handleGames serves the cached games list. The favorite filter narrows to
// the league and club ids snapshotted in the session token.
func (a *API) handleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return
	}

	q := r.URL.Query()
	filter := fixtures.Filter{
		Date:          q.Get("date"),
		BetsOnly:      q.Get("bets") == "1",
		PotentialBets: q.Get("potential_bets") == "1",
	}
	if q.Get("favorites") == "1" {
		filter.Leagues = claims.FavoriteLeagues
		filter.Clubs = claims.FavoriteClubs
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		filter.Limit = limit
	}

	games, err := a.deps.Games.Find(r.Context(), filter)
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}

	resp := map[string]any{"games": games}
	if filter.Date != "" {
		if at, ok, err := a.deps.FetchLog.LastFetched(r.Context(), filter.Date); err == nil && ok {
			resp["fetched_at"] = at
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBets lists the user's bets or places a new one.
func (a *API) handleBets(w http.ResponseWriter, r *http.Request) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		apperr.Render(w, apperr.New(apperr.Internal, ""))
		return
	}

	switch r.Method {
	case http.MethodGet:
		var seasonID int64
		if raw := r.URL.Query().Get("season"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				apperr.Render(w, apperr.New(apperr.BadRequest, ""))
				return
			}
			seasonID = id
		}
		bets, err := a.deps.Bets.BetsForUser(r.Context(), claims.UserID, seasonID)
		if err != nil {
			a.renderBetError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bets": bets})

	case http.MethodPost:
		var req placeBetRequest
		if err := decodeJSON(r, &req); err != nil || req.FixtureID == 0 {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		result := fixtures.GameResult(req.Result)
		if result != fixtures.ResultWin && result != fixtures.ResultDraw && result != fixtures.ResultLoss {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		if err := a.deps.Bets.Place(r.Context(), claims.UserID, req.FixtureID, result, req.Stake); err != nil {
			a.renderBetError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"status": "bet_placed"})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (a *API) renderBetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fixtures.ErrGameStarted):
		apperr.Render(w, apperr.New(apperr.BadRequest, ""))
	case errors.Is(err, fixtures.ErrNotFound), errors.Is(err, betting.ErrNoCurrentSeason):
		apperr.Render(w, apperr.New(apperr.NotFound, ""))
	default:
		apperr.Render(w, apperr.WrapStore(err))
	}
}

// handleScoreboard serves the cached season ranking.
func (a *API) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	var seasonID, limit int64
	if raw := q.Get("season"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		seasonID = id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			apperr.Render(w, apperr.New(apperr.BadRequest, ""))
			return
		}
		limit = n
	}
	rows, err := a.deps.Bets.Scoreboard(r.Context(), seasonID, limit)
	if err != nil {
		apperr.Render(w, apperr.WrapStore(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scoreboard": rows})
}

// handleAsset terminates the asset chain. Assets themselves are served by
// the front proxy; anything that reaches the app process is unknown.
func (a *API) handleAsset(w http.ResponseWriter, r *http.Request) {
	apperr.Render(w, apperr.New(apperr.NotFound, ""))
}
