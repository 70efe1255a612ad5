package obs

import "github.com/prometheus/client_golang/prometheus"

// Доменные метрики: сессии, баны, кэш.
var (
	peerBansRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peer_bans_rejected_total",
		Help: "Requests rejected because the peer address is banned.",
	})

	sessionOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Session lifecycle operations.",
		},
		[]string{"op"}, // issued | refreshed | revoked | rejected
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Read-through cache traffic by namespace.",
		},
		[]string{"namespace", "outcome"}, // hit | miss | invalidated
	)
)

func registerDomain() {
	prometheus.MustRegister(peerBansRejected, sessionOps, cacheOps)
}

// PeerBanRejected counts a request turned away at the abuse gate.
func PeerBanRejected() { peerBansRejected.Inc() }

func SessionIssued()    { sessionOps.WithLabelValues("issued").Inc() }
func SessionRefreshed() { sessionOps.WithLabelValues("refreshed").Inc() }
func SessionRevoked()   { sessionOps.WithLabelValues("revoked").Inc() }
func SessionRejected()  { sessionOps.WithLabelValues("rejected").Inc() }

// CacheObserver adapts the cache traffic callbacks onto Prometheus
// counters. Safe for concurrent use.
type CacheObserver struct{}

func (CacheObserver) Hit(namespace string)  { cacheOps.WithLabelValues(namespace, "hit").Inc() }
func (CacheObserver) Miss(namespace string) { cacheOps.WithLabelValues(namespace, "miss").Inc() }
func (CacheObserver) Invalidated(namespace string, keys int) {
	cacheOps.WithLabelValues(namespace, "invalidated").Add(float64(keys))
}
