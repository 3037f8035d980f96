// Package metrics provides Prometheus metrics for the rating engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns the engine's metric collectors.
type Manager struct {
	namespace  string
	subsystem  string
	buckets    []float64
	enabled    bool
	registerer prometheus.Registerer

	gamesProcessed prometheus.Counter
	gamesRejected  prometheus.Counter
	filesReplayed  prometheus.Counter
	filesSkipped   prometheus.Counter
	ratingsWritten prometheus.Counter
	writeErrors    prometheus.Counter
	playersTracked prometheus.Gauge
	runDuration    *prometheus.HistogramVec
}

// NewManager builds and registers the engine collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:  "mmr",
		buckets:    prometheus.DefBuckets,
		enabled:    true,
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		})
		m.registerer.MustRegister(c)
		return c
	}

	m.gamesProcessed = counter("games_processed_total", "Games successfully run through the rating engine.")
	m.gamesRejected = counter("games_rejected_total", "Games rejected for malformed rosters.")
	m.filesReplayed = counter("files_replayed_total", "History files replayed successfully.")
	m.filesSkipped = counter("files_skipped_total", "History files skipped as unreadable or malformed.")
	m.ratingsWritten = counter("ratings_written_total", "Changed ratings written through to the registry.")
	m.writeErrors = counter("rating_write_errors_total", "Registry writes that failed.")

	m.playersTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Players tracked by the most recent run.",
	})
	m.registerer.MustRegister(m.playersTracked)

	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of replay and ingest runs.",
		Buckets:   m.buckets,
	}, []string{"mode"})
	m.registerer.MustRegister(m.runDuration)

	return m
}

// Recorder methods are no-ops when the manager is disabled.

func (m *Manager) RecordGameProcessed() {
	if m.enabled {
		m.gamesProcessed.Inc()
	}
}

func (m *Manager) RecordGameRejected() {
	if m.enabled {
		m.gamesRejected.Inc()
	}
}

func (m *Manager) RecordFileReplayed() {
	if m.enabled {
		m.filesReplayed.Inc()
	}
}

func (m *Manager) RecordFileSkipped() {
	if m.enabled {
		m.filesSkipped.Inc()
	}
}

func (m *Manager) RecordRatingWritten() {
	if m.enabled {
		m.ratingsWritten.Inc()
	}
}

func (m *Manager) RecordWriteError() {
	if m.enabled {
		m.writeErrors.Inc()
	}
}

func (m *Manager) SetPlayersTracked(n int) {
	if m.enabled {
		m.playersTracked.Set(float64(n))
	}
}

func (m *Manager) ObserveRunDuration(mode string, seconds float64) {
	if m.enabled {
		m.runDuration.WithLabelValues(mode).Observe(seconds)
	}
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager, registering it against the
// default Prometheus registerer on first use.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Package-level recorders against the default manager.

func RecordGameProcessed()    { Default().RecordGameProcessed() }
func RecordGameRejected()     { Default().RecordGameRejected() }
func RecordFileReplayed()     { Default().RecordFileReplayed() }
func RecordFileSkipped()      { Default().RecordFileSkipped() }
func RecordRatingWritten()    { Default().RecordRatingWritten() }
func RecordWriteError()       { Default().RecordWriteError() }
func SetPlayersTracked(n int) { Default().SetPlayersTracked(n) }

func ObserveRunDuration(mode string, seconds float64) {
	Default().ObserveRunDuration(mode, seconds)
}
