// Package httpapi wires the authorization pipeline and the request
// handlers onto one mux. Route groups differ only in which pipeline chain
// fronts them: public routes pass consent and abuse gates, protected
// routes additionally pass session, refresh and capability gates, and the
// asset group applies the hotlink rules.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"matchday.app/internal/abuse"
	"matchday.app/internal/betting"
	"matchday.app/internal/config"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/identity"
	"matchday.app/internal/obs"
	"matchday.app/internal/pipeline"
	"matchday.app/internal/session"
)

// ReadyProbe checks the hard dependency behind /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Sessions   *session.Service
	Identities identity.Store
	Games      *fixtures.Games
	FetchLog   *fixtures.FetchLog
	Bets       *betting.Service
	Tracker    *abuse.Tracker
	Signer     *session.Signer
	Ready      ReadyProbe
}

// API is the HTTP surface.
type API struct {
	mux     *http.ServeMux
	cfg     config.Config
	deps    Deps
	version string
	sleep   func(ctx context.Context, d time.Duration)
}

func New(cfg config.Config, deps Deps, version string) *API {
	a := &API{
		mux:     http.NewServeMux(),
		cfg:     cfg,
		deps:    deps,
		version: version,
		sleep:   sleepContext,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	consent := pipeline.NewConsentGate(a.cfg.ConsentCookie, a.cfg.BypassedPaths...)
	abuseGate := pipeline.NewAbuseGate(a.deps.Tracker)
	sessionGate := pipeline.NewSessionGate(a.deps.Sessions, a.cfg.SessionCookie)
	refreshGate := pipeline.NewRefreshGate(a.deps.Sessions, a.cfg.SessionCookie, a.cfg.SessionTTL)
	capabilityGate := pipeline.NewCapabilityGate()
	// Pages from which the site may reference protected assets without a
	// session cookie.
	refererPages := []string{"/", "/games", "/bets", "/scoreboard"}
	assetGate := pipeline.NewAssetGate(a.deps.Signer, a.cfg.SessionCookie,
		a.cfg.AssetsBasePath, a.cfg.TrustedHosts, refererPages)

	public := pipeline.New(consent, abuseGate)
	protected := pipeline.New(consent, abuseGate, sessionGate, refreshGate, capabilityGate)
	// Asset misses are routine (stale logo paths), so the abuse gate stays
	// off this chain to keep them out of the client-error counters.
	assets := pipeline.New(assetGate)

	handle := func(path string, chain *pipeline.Chain, h http.HandlerFunc) {
		a.mux.Handle(path, chain.Then(h))
	}

	handle("/", public, a.handleRoot)
	handle("/cookies", public, a.handleCookiesInfo)
	handle("/cookies/approve", public, a.handleCookiesApprove)
	handle("/login", public, a.handleLogin)
	handle("/signup", public, a.handleSignup)
	handle("/logout", public, a.handleLogout)

	handle("/games", protected, a.handleGames)
	handle("/bets", protected, a.handleBets)
	handle("/scoreboard", protected, a.handleScoreboard)
	handle("/profile/edit", protected, a.handleProfileEdit)
	handle("/admin/users", protected, a.handleAdminUsers)
	handle("/admin/seasons", protected, a.handleAdminSeasons)

	handle(a.cfg.AssetsBasePath+"/", assets, a.handleAsset)

	// Operational endpoints sit outside every chain.
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())
}

// Handler returns the full middleware stack around the mux.
func (a *API) Handler() http.Handler {
	return RequestID(Logging(SecurityHeaders(obs.Instrument(MaxBodyBytes(a.mux, 1<<20)))))
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "matchday-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "matchday-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
