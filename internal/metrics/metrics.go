// Package metrics exposes prometheus instrumentation for the boost
// daemon.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boostd"

var (
	// ActiveSessions tracks sessions currently registered with the
	// arbiter.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of boost sessions currently registered.",
	})

	// ReportsTotal counts accepted work duration report batches.
	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "Total accepted work duration report batches.",
	})

	// FirstFramesTotal counts reports that arrived after the session
	// went stale.
	FirstFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "first_frames_total",
		Help:      "Total reports that arrived after the staleness deadline.",
	})

	// VotesSetTotal counts vote upserts by vote kind.
	VotesSetTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_set_total",
		Help:      "Total clamp votes set, by vote kind.",
	}, []string{"vote"})

	// VotesExpiredTotal counts votes deactivated by the timeout worker,
	// by vote kind.
	VotesExpiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_expired_total",
		Help:      "Total clamp votes expired by the timeout worker, by vote kind.",
	}, []string{"vote"})

	// SetPointGauge tracks the PID set point per session.
	SetPointGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "set_point",
		Help:      "Current PID set point (uclamp.min), by session.",
	}, []string{"session"})

	// UclampAppliesTotal counts kernel clamp applications.
	UclampAppliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uclamp_applies_total",
		Help:      "Total uclamp.min values written to the kernel.",
	})

	// RejectedCallsTotal counts rejected session calls by operation.
	RejectedCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_calls_total",
		Help:      "Total session calls rejected with an error, by operation.",
	}, []string{"op"})

	// UniversalBoostEnabled reports whether the system-wide top-app
	// boost is currently enabled (1) or held off by a hinting app
	// session (0).
	UniversalBoostEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "universal_boost_enabled",
		Help:      "Whether the system-wide top-app boost is enabled.",
	})
)

// StartServer starts the metrics HTTP server on the given port and
// path. It returns the server so the caller can shut it down.
func StartServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// http.ErrServerClosed is the normal shutdown path.
		_ = srv.ListenAndServe()
	}()

	return srv
}
