// Package metrics exports Prometheus counters for the ban lifecycle and
// serves them over HTTP.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	process = "sentinel"

	endpointMetrics = "/metrics"
)

func init() {
	prometheus.MustRegister(bansCreated)
	prometheus.MustRegister(unbansTotal)
	prometheus.MustRegister(sweepRuns)
	prometheus.MustRegister(sweepReaped)
	prometheus.MustRegister(sweepFailures)
}

var (
	// bansCreated tracks bans created, labeled by category
	// (TEMPORARY, PERMANENT, ADDRESS).
	bansCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: process,
			Name:      "bans_created_total",
			Help:      "Total number of bans created, by category",
		},
		[]string{"category"},
	)

	// unbansTotal tracks bans deactivated by an operator rather than by
	// expiry.
	unbansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: process,
			Name:      "unbans_total",
			Help:      "Total number of bans lifted by an operator",
		},
	)

	// sweepRuns counts completed sweep passes, successful or not.
	sweepRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: process,
			Name:      "sweep_runs_total",
			Help:      "Total number of expiration sweep passes",
		},
	)

	// sweepReaped counts bans deactivated by the sweeper.
	sweepReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: process,
			Name:      "sweep_reaped_total",
			Help:      "Total number of expired bans deactivated by the sweeper",
		},
	)

	// sweepFailures counts sweep passes that returned an error.
	sweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: process,
			Name:      "sweep_failures_total",
			Help:      "Total number of failed expiration sweep passes",
		},
	)
)

// RecordBanCreated increments the creation counter for the category.
func RecordBanCreated(category string) {
	bansCreated.WithLabelValues(category).Inc()
}

// RecordUnban increments the operator-unban counter by n.
func RecordUnban(n int64) {
	unbansTotal.Add(float64(n))
}

// RecordSweep records the outcome of one sweep pass.
func RecordSweep(reaped int64, err error) {
	sweepRuns.Inc()
	if err != nil {
		sweepFailures.Inc()
		return
	}
	sweepReaped.Add(float64(reaped))
}

// ServeMetrics starts the Prometheus scrape endpoint on addr in a
// background goroutine.
func ServeMetrics(addr string, log *slog.Logger) {
	go func() {
		log.Info("serving metrics", "addr", addr, "endpoint", endpointMetrics)
		mux := http.NewServeMux()
		mux.Handle(endpointMetrics, promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics server failed", "error", err)
		}
	}()
}
