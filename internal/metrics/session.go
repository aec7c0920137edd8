// Package metrics provides Prometheus metrics for the streaming session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionStates lists every value of the state label.
var SessionStates = []string{"stopped", "starting", "streaming", "reconnecting", "error"}

var (
	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ipcam",
		Subsystem: "session",
		Name:      "state",
		Help:      "Current session state (1 for the active state, 0 otherwise)",
	}, []string{"state"})

	producerRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipcam",
		Subsystem: "producer",
		Name:      "restarts_total",
		Help:      "Producer relaunches after an unexpected exit",
	})

	spawnFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipcam",
		Subsystem: "spawn",
		Name:      "failures_total",
		Help:      "Child processes the OS refused to launch",
	}, []string{"role"})

	stagingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipcam",
		Subsystem: "staging",
		Name:      "failures_total",
		Help:      "Start attempts aborted by a staging error",
	})

	staleKilled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipcam",
		Subsystem: "stale_processes",
		Name:      "killed_total",
		Help:      "Stale relay or producer processes terminated",
	})
)

func init() {
	SetSessionState("stopped")
}

// SetSessionState marks state as the only active session state.
func SetSessionState(state string) {
	for _, s := range SessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}

// IncProducerRestarts counts one producer relaunch.
func IncProducerRestarts() {
	producerRestarts.Inc()
}

// IncSpawnFailure counts one failed launch for role.
func IncSpawnFailure(role string) {
	spawnFailures.WithLabelValues(role).Inc()
}

// IncStagingFailure counts one failed staging run.
func IncStagingFailure() {
	stagingFailures.Inc()
}

// AddStaleKilled counts n terminated stale processes.
func AddStaleKilled(n int) {
	if n > 0 {
		staleKilled.Add(float64(n))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
