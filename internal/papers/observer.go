// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Observer receives pipeline events. The pipeline itself writes nothing;
// logging and metrics are Observers. Methods may be called from several
// goroutines when Workers > 1.
type Observer interface {
	SearchCompleted(query string, ids []string)
	SearchFailed(query string, err error)
	RateLimited(pmid string, attempt, maxAttempts int, delay time.Duration)
	RetriesExhausted(pmid string, attempts int)
	FetchFailed(pmid string, err error)
	RecordMissing(pmid string)
	AuthorClassified(pmid string, author types.Author, nonAcademic bool)
	PaperProcessed(summary types.PaperSummary)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

// SearchCompleted does nothing.
func (NopObserver) SearchCompleted(string, []string) {}

// SearchFailed does nothing.
func (NopObserver) SearchFailed(string, error) {}

// RateLimited does nothing.
func (NopObserver) RateLimited(string, int, int, time.Duration) {}

// RetriesExhausted does nothing.
func (NopObserver) RetriesExhausted(string, int) {}

// FetchFailed does nothing.
func (NopObserver) FetchFailed(string, error) {}

// RecordMissing does nothing.
func (NopObserver) RecordMissing(string) {}

// AuthorClassified does nothing.
func (NopObserver) AuthorClassified(string, types.Author, bool) {}

// PaperProcessed does nothing.
func (NopObserver) PaperProcessed(types.PaperSummary) {}

// Observers fans each event out to every member in order. Its methods
// implement Observer by forwarding.
type Observers []Observer

// SearchCompleted forwards to every member.
func (obs Observers) SearchCompleted(query string, ids []string) {
	for _, o := range obs {
		o.SearchCompleted(query, ids)
	}
}

// SearchFailed forwards to every member.
func (obs Observers) SearchFailed(query string, err error) {
	for _, o := range obs {
		o.SearchFailed(query, err)
	}
}

// RateLimited forwards to every member.
func (obs Observers) RateLimited(pmid string, attempt, maxAttempts int, delay time.Duration) {
	for _, o := range obs {
		o.RateLimited(pmid, attempt, maxAttempts, delay)
	}
}

// RetriesExhausted forwards to every member.
func (obs Observers) RetriesExhausted(pmid string, attempts int) {
	for _, o := range obs {
		o.RetriesExhausted(pmid, attempts)
	}
}

// FetchFailed forwards to every member.
func (obs Observers) FetchFailed(pmid string, err error) {
	for _, o := range obs {
		o.FetchFailed(pmid, err)
	}
}

// RecordMissing forwards to every member.
func (obs Observers) RecordMissing(pmid string) {
	for _, o := range obs {
		o.RecordMissing(pmid)
	}
}

// AuthorClassified forwards to every member.
func (obs Observers) AuthorClassified(pmid string, author types.Author, nonAcademic bool) {
	for _, o := range obs {
		o.AuthorClassified(pmid, author, nonAcademic)
	}
}

// PaperProcessed forwards to every member.
func (obs Observers) PaperProcessed(summary types.PaperSummary) {
	for _, o := range obs {
		o.PaperProcessed(summary)
	}
}

// LogObserver writes events to a zerolog logger and implements Observer.
// Per-author decisions and per-paper progress are Debug; failures are Warn
// or Error.
type LogObserver struct {
	Log zerolog.Logger
}

// SearchCompleted logs the identifiers found, or that there were none.
func (l LogObserver) SearchCompleted(query string, ids []string) {
	if len(ids) == 0 {
		l.Log.Info().Str("query", query).Msg("search returned no identifiers")
		return
	}
	l.Log.Debug().Str("query", query).Strs("pmids", ids).Msg("fetched identifiers")
}

// SearchFailed logs the search error.
func (l LogObserver) SearchFailed(query string, err error) {
	l.Log.Error().Err(err).Str("query", query).Msg("identifier search failed")
}

// RateLimited logs each backoff wait.
func (l LogObserver) RateLimited(pmid string, attempt, maxAttempts int, delay time.Duration) {
	l.Log.Warn().
		Str("pmid", pmid).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Dur("retry_in", delay).
		Msg("rate limit exceeded, backing off")
}

// RetriesExhausted logs an abandoned identifier.
func (l LogObserver) RetriesExhausted(pmid string, attempts int) {
	l.Log.Error().Str("pmid", pmid).Int("attempts", attempts).Msg("giving up after repeated rate limiting")
}

// FetchFailed logs a failed fetch.
func (l LogObserver) FetchFailed(pmid string, err error) {
	l.Log.Error().Err(err).Str("pmid", pmid).Msg("fetching paper details failed")
}

// RecordMissing logs a fetch that returned no article.
func (l LogObserver) RecordMissing(pmid string) {
	l.Log.Warn().Str("pmid", pmid).Msg("no article in fetched record")
}

// AuthorClassified logs one classification decision at debug level.
func (l LogObserver) AuthorClassified(pmid string, author types.Author, nonAcademic bool) {
	l.Log.Debug().
		Str("pmid", pmid).
		Str("author", author.DisplayName()).
		Str("affiliation", author.Affiliation).
		Bool("non_academic", nonAcademic).
		Msg("classified affiliation")
}

// PaperProcessed logs a finished summary at debug level.
func (l LogObserver) PaperProcessed(summary types.PaperSummary) {
	l.Log.Debug().
		Str("pmid", summary.PubmedID).
		Str("title", summary.Title).
		Int("non_academic_authors", len(summary.NonAcademicAuthors)).
		Msg("processed paper")
}
