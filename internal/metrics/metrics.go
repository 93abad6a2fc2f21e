// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts pipeline events on a per-run Prometheus registry.
// A run is a batch job, so the registry is written once as a textfile for
// the node exporter instead of being served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeServiceError = "service_error"
	OutcomeUnparseable  = "unparseable"
)

// Recorder holds the run's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	queries     *prometheus.CounterVec
	links       prometheus.Counter
	fetches     *prometheus.CounterVec
	extractions *prometheus.CounterVec
	subjects    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "search_queries_total",
			Help:      "Search queries issued, by searcher and outcome.",
		}, []string{"searcher", "outcome"}),
		links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "links_discovered_total",
			Help:      "Relevant links kept after filtering.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "fetches_total",
			Help:      "Source fetches, by outcome.",
		}, []string{"outcome"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "extractions_total",
			Help:      "Extraction calls, by outcome.",
		}, []string{"outcome"}),
		subjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "subjects_total",
			Help:      "Subjects persisted, by final status.",
		}, []string{"status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dossier",
			Name:      "call_duration_seconds",
			Help:      "Latency of external calls, by stage.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.queries, r.links, r.fetches, r.extractions, r.subjects, r.durations)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Query counts one search query.
func (r *Recorder) Query(searcher string, err error) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(searcher, outcome(err)).Inc()
}

// Links adds n kept links.
func (r *Recorder) Links(n int) {
	if r == nil {
		return
	}
	r.links.Add(float64(n))
}

// Fetch counts one source fetch.
func (r *Recorder) Fetch(err error) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(outcome(err)).Inc()
}

// Extraction counts one extraction call with the given outcome label.
func (r *Recorder) Extraction(outcome string) {
	if r == nil {
		return
	}
	r.extractions.WithLabelValues(outcome).Inc()
}

// Subject counts one persisted subject.
func (r *Recorder) Subject(status string) {
	if r == nil {
		return
	}
	r.subjects.WithLabelValues(status).Inc()
}

// Observe records the latency of a call made at stage since start.
func (r *Recorder) Observe(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.durations.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
