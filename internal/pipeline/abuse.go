package pipeline

import (
	"net"
	"net/http"
	"strings"

	"matchday.app/internal/abuse"
	"matchday.app/internal/apperr"
	"matchday.app/internal/obs"
)

// AbuseGate rejects banned addresses before any downstream stage runs and
// counts client-error responses after the fact. The increment is observed
// only by future requests, never the current one: this is a reactive,
// delayed mitigation, not a throttle.
type AbuseGate struct {
	tracker *abuse.Tracker
}

func NewAbuseGate(tracker *abuse.Tracker) *AbuseGate {
	return &AbuseGate{tracker: tracker}
}

func (g *AbuseGate) Name() string { return "abuse" }

func (g *AbuseGate) Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	addr := ClientAddr(r)
	if addr == "" {
		return r, true
	}
	banned, err := g.tracker.IsBanned(r.Context(), addr)
	if err != nil {
		// Store unreachable: let the request through rather than banning
		// the world, but make the failure visible.
		obs.LogError("abuse_check_failed", map[string]any{"addr": addr, "error": err.Error()})
		return r, true
	}
	if banned {
		obs.PeerBanRejected()
		// The address is included so operators can find the offender.
		apperr.Render(w, apperr.New(apperr.PeerBanned, addr))
		return r, false
	}
	return r, true
}

// Observe records a client error for the address once the downstream
// response is known. Runs after the response is written; failures can only
// be logged.
func (g *AbuseGate) Observe(r *http.Request, status int) {
	if status < 400 || status > 499 {
		return
	}
	addr := ClientAddr(r)
	if addr == "" {
		return
	}
	if err := g.tracker.RegisterClientError(r.Context(), addr); err != nil {
		obs.LogError("abuse_register_failed", map[string]any{"addr": addr, "error": err.Error()})
	}
}

// ClientAddr resolves the caller address. The app runs behind a reverse
// proxy, so the forwarded address wins over the socket peer.
func ClientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
