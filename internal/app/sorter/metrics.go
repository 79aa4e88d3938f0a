package sorter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/osa030/genresort/internal/domain/partition"
)

var (
	// buildsTotal counts partition builds.
	// Labels: outcome (ok, error)
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genresort",
		Subsystem: "sorter",
		Name:      "builds_total",
		Help:      "Total partition builds",
	}, []string{"outcome"})

	// buildDuration measures a full build including genre resolution.
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "genresort",
		Subsystem: "sorter",
		Name:      "build_duration_seconds",
		Help:      "Partition build latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// mutationsTotal counts partition mutations.
	// Labels: op (move, merge, reassign), outcome (ok, not_found, invalid, error)
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genresort",
		Subsystem: "sorter",
		Name:      "mutations_total",
		Help:      "Total partition mutations by operation and outcome",
	}, []string{"op", "outcome"})

	// unresolvedArtists counts artists left in the unknown bucket because
	// their genre batch failed.
	unresolvedArtists = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "genresort",
		Subsystem: "genre",
		Name:      "unresolved_artists_total",
		Help:      "Total artists whose genre lookup failed during a build",
	})

	// exportsTotal counts bucket exports.
	// Labels: outcome (ok, not_found, error)
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genresort",
		Subsystem: "sorter",
		Name:      "exports_total",
		Help:      "Total bucket exports to new playlists",
	}, []string{"outcome"})

	// activeSessions tracks playlists with a partition in memory.
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "genresort",
		Subsystem: "sorter",
		Name:      "active_sessions",
		Help:      "Playlists currently being sorted",
	})
)

// outcome maps an operation error to a metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case partition.IsNotFound(err):
		return "not_found"
	case partition.IsInvalidInput(err):
		return "invalid"
	default:
		return "error"
	}
}
