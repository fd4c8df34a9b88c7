// Package metrics defines the Prometheus collectors of dicoserve. There is
// no HTTP endpoint: the registry is dumped to a node exporter textfile.
package metrics

import (
	"errors"

	"github.com/bastiangx/dicoserve/pkg/apply"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	PassesTotal     *prometheus.CounterVec
	PassDuration    *prometheus.HistogramVec
	LinesTotal      *prometheus.CounterVec
	RecordsTotal    *prometheus.CounterVec
	CacheNodes      *prometheus.HistogramVec
	WordOccurrences *prometheus.GaugeVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicoserve_passes_total",
				Help: "Dictionary passes and merges by kind and status (ok, skipped, failed).",
			},
			[]string{"kind", "status"},
		),
		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicoserve_pass_duration_seconds",
				Help:    "Duration of a pass in seconds.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"kind"},
		),
		LinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicoserve_lines_total",
				Help: "DELAF lines written by stream (dlf, dlc).",
			},
			[]string{"stream"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicoserve_records_total",
				Help: "Matches not written, by reason (refused, dropped, malformed).",
			},
			[]string{"reason"},
		),
		CacheNodes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicoserve_word_cache_nodes",
				Help:    "Word-Struct cache nodes built by a dictionary pass.",
				Buckets: prometheus.ExponentialBuckets(16, 4, 8),
			},
			[]string{},
		),
		WordOccurrences: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dicoserve_word_occurrences",
				Help: "Occurrences of the last finished session by class (simple, compound, unknown).",
			},
			[]string{"class"},
		),
	}
	m.registry.MustRegister(
		m.PassesTotal,
		m.PassDuration,
		m.LinesTotal,
		m.RecordsTotal,
		m.CacheNodes,
		m.WordOccurrences,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObservePass records one pass outcome.
func (m *Metrics) ObservePass(r apply.PassReport, err error) {
	switch {
	case errors.Is(err, apply.ErrFileOpen):
		m.PassesTotal.WithLabelValues(r.Kind, "skipped").Inc()
		return
	case err != nil:
		m.PassesTotal.WithLabelValues(r.Kind, "failed").Inc()
		return
	}
	m.PassesTotal.WithLabelValues(r.Kind, "ok").Inc()
	m.PassDuration.WithLabelValues(r.Kind).Observe(r.Elapsed.Seconds())
	m.LinesTotal.WithLabelValues("dlf").Add(float64(r.SimpleLines))
	m.LinesTotal.WithLabelValues("dlc").Add(float64(r.CompoundLines))
	m.RecordsTotal.WithLabelValues("refused").Add(float64(r.Refused))
	m.RecordsTotal.WithLabelValues("dropped").Add(float64(r.Dropped))
	m.RecordsTotal.WithLabelValues("malformed").Add(float64(r.Malformed))
	if r.Kind == apply.KindDictionary {
		m.CacheNodes.WithLabelValues().Observe(float64(r.CacheNodes))
	}
}

// ObserveStats records the counts of a finished session.
func (m *Metrics) ObserveStats(s apply.Stats) {
	m.WordOccurrences.WithLabelValues("simple").Set(float64(s.SimpleWords))
	m.WordOccurrences.WithLabelValues("compound").Set(float64(s.CompoundWords))
	m.WordOccurrences.WithLabelValues("unknown").Set(float64(s.UnknownWords))
}

// WriteTextfile dumps the registry in the text exposition format. An empty
// path does nothing.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
