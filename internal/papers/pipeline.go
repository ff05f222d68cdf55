// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers runs one query end to end: identifier search, per-record
// fetch with rate-limit retry, and affiliation classification.
package papers

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-affiliations/internal/classify"
	"github.com/pdiddy/paper-affiliations/internal/httputil"
	"github.com/pdiddy/paper-affiliations/internal/pubmed"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Source is the remote literature database. *pubmed.Client implements it.
type Source interface {
	Search(ctx context.Context, query string) ([]string, error)
	Fetch(ctx context.Context, pmid string, onRetry func(attempt int, delay time.Duration)) (*pubmed.Article, error)
	MaxAttempts() int
}

// Pipeline holds the collaborators for a run.
type Pipeline struct {
	source     Source
	classifier *classify.Classifier
	observer   Observer
	workers    int
}

// New returns a pipeline. A nil observer discards events and workers below
// one means sequential fetching.
func New(source Source, classifier *classify.Classifier, observer Observer, workers int) *Pipeline {
	if observer == nil {
		observer = NopObserver{}
	}
	if classifier == nil {
		classifier = classify.Default
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		source:     source,
		classifier: classifier,
		observer:   observer,
		workers:    workers,
	}
}

// Result is the outcome of Run.
type Result struct {
	// Identifiers is the number of PMIDs the search returned.
	Identifiers int

	// Papers holds one summary per successfully fetched identifier, in
	// search order.
	Papers []types.PaperSummary

	// Dropped counts identifiers that produced no summary.
	Dropped int
}

// Search returns the identifiers matching query. Failures are reported to
// the observer and yield an empty list.
func (p *Pipeline) Search(ctx context.Context, query string) []string {
	ids, err := p.source.Search(ctx, query)
	if err != nil {
		p.observer.SearchFailed(query, err)
		return nil
	}
	p.observer.SearchCompleted(query, ids)
	return ids
}

// FetchSummary fetches and classifies one record. It reports false when the
// record is missing, the fetch failed, or rate limiting outlasted the
// retry budget.
func (p *Pipeline) FetchSummary(ctx context.Context, pmid string) (types.PaperSummary, bool) {
	maxAttempts := p.source.MaxAttempts()
	art, err := p.source.Fetch(ctx, pmid, func(attempt int, delay time.Duration) {
		p.observer.RateLimited(pmid, attempt, maxAttempts, delay)
	})
	if err != nil {
		var rerr *httputil.RetryError
		if errors.As(err, &rerr) {
			p.observer.RetriesExhausted(pmid, rerr.Attempts)
		} else {
			p.observer.FetchFailed(pmid, err)
		}
		return types.PaperSummary{}, false
	}
	if art == nil {
		p.observer.RecordMissing(pmid)
		return types.PaperSummary{}, false
	}

	rec := Record{
		PubmedID: pmid,
		Title:    art.Title(),
		Year:     art.Year(),
		Authors:  art.Authors(),
	}
	summary := Summarize(rec, p.classifier, func(a types.Author, nonAcademic bool) {
		p.observer.AuthorClassified(pmid, a, nonAcademic)
	})
	p.observer.PaperProcessed(summary)
	return summary, true
}

// Run searches for query and fetches every identifier, at most p.workers at
// a time. One identifier's failure never affects another.
func (p *Pipeline) Run(ctx context.Context, query string) Result {
	ids := p.Search(ctx, query)
	res := Result{Identifiers: len(ids)}
	if len(ids) == 0 {
		return res
	}

	slots := make([]*types.PaperSummary, len(ids))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, id := range ids {
		g.Go(func() error {
			if s, ok := p.FetchSummary(ctx, id); ok {
				slots[i] = &s
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		if s == nil {
			res.Dropped++
			continue
		}
		res.Papers = append(res.Papers, *s)
	}
	return res
}
