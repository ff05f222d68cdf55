// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts pipeline events in a Prometheus registry and can
// dump them in the node_exporter textfile format at the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const namespace = "paper_affiliations"

// Metrics holds the run counters. It satisfies papers.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Searches counts identifier searches by outcome ("ok", "failed").
	Searches *prometheus.CounterVec

	// Identifiers counts PMIDs returned by searches.
	Identifiers prometheus.Counter

	// Throttled counts 429 responses that were retried.
	Throttled prometheus.Counter

	// Backoff observes the sleep scheduled after each 429.
	Backoff prometheus.Histogram

	// FetchFailures counts identifiers that produced no summary, by reason
	// ("exhausted", "error", "missing").
	FetchFailures *prometheus.CounterVec

	// Authors counts classified authors by class ("academic", "non_academic").
	Authors *prometheus.CounterVec

	// Papers counts summaries produced.
	Papers prometheus.Counter
}

// New registers the run counters in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Identifier searches by outcome.",
		}, []string{"outcome"}),
		Identifiers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifiers_total",
			Help:      "PubMed identifiers returned by searches.",
		}),
		Throttled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Fetch responses with status 429 that were retried.",
		}),
		Backoff: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backoff_seconds",
			Help:      "Backoff delay scheduled after a 429 response.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Identifiers dropped from the run, by reason.",
		}, []string{"reason"}),
		Authors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authors_classified_total",
			Help:      "Authors classified, by class.",
		}, []string{"class"}),
		Papers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_processed_total",
			Help:      "Paper summaries produced.",
		}),
	}
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the current values to path in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// SearchCompleted counts a successful search and its identifiers.
func (m *Metrics) SearchCompleted(_ string, ids []string) {
	m.Searches.WithLabelValues("ok").Inc()
	m.Identifiers.Add(float64(len(ids)))
}

// SearchFailed counts a failed search.
func (m *Metrics) SearchFailed(string, error) {
	m.Searches.WithLabelValues("failed").Inc()
}

// RateLimited counts a 429 and observes its backoff.
func (m *Metrics) RateLimited(_ string, _, _ int, delay time.Duration) {
	m.Throttled.Inc()
	m.Backoff.Observe(delay.Seconds())
}

// RetriesExhausted counts an identifier abandoned after rate limiting.
func (m *Metrics) RetriesExhausted(string, int) {
	m.FetchFailures.WithLabelValues("exhausted").Inc()
}

// FetchFailed counts an identifier dropped by a fetch error.
func (m *Metrics) FetchFailed(string, error) {
	m.FetchFailures.WithLabelValues("error").Inc()
}

// RecordMissing counts an identifier with no article.
func (m *Metrics) RecordMissing(string) {
	m.FetchFailures.WithLabelValues("missing").Inc()
}

// AuthorClassified counts one author by class.
func (m *Metrics) AuthorClassified(_ string, _ types.Author, nonAcademic bool) {
	class := "academic"
	if nonAcademic {
		class = "non_academic"
	}
	m.Authors.WithLabelValues(class).Inc()
}

// PaperProcessed counts a produced summary.
func (m *Metrics) PaperProcessed(types.PaperSummary) {
	m.Papers.Inc()
}
