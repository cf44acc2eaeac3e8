package driver

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments the driver updates during a run.
// Callers that don't want metrics served can simply not register them with
// any gatherer; the driver always updates them.
type Metrics struct {
	EpisodesBuilt   prometheus.Counter
	IncidentsWritten prometheus.Counter
	RunDuration     prometheus.Histogram
	RunFailures     prometheus.Counter
}

// NewMetrics creates a fresh Metrics instance registered on reg. Pass a
// prometheus.NewRegistry() per run in tests to avoid collisions with the
// default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EpisodesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rca_core_episodes_built_total",
			Help: "Number of episodes built in the most recent and all prior runs.",
		}),
		IncidentsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rca_core_incidents_written_total",
			Help: "Number of incident files written.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rca_core_run_duration_seconds",
			Help:    "Wall-clock duration of a driver run.",
			Buckets: prometheus.DefBuckets,
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rca_core_run_failures_total",
			Help: "Number of driver runs that returned an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EpisodesBuilt, m.IncidentsWritten, m.RunDuration, m.RunFailures)
	}
	return m
}
