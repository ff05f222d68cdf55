// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"github.com/pdiddy/paper-affiliations/internal/classify"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// Record is the extracted content of one fetched article.
type Record struct {
	PubmedID string
	Title    string
	Year     string
	Authors  []types.Author
}

// Summarize classifies every author of rec and flattens the non-academic
// ones into a PaperSummary. Names and affiliations come from the same
// filtered authors, in encounter order; each affiliation appears once.
// The slices are never nil. onClassify, if non-nil, sees every decision.
func Summarize(rec Record, c *classify.Classifier, onClassify func(types.Author, bool)) types.PaperSummary {
	s := types.PaperSummary{
		PubmedID:            rec.PubmedID,
		Title:               orDefault(rec.Title, types.UnknownTitle),
		PublicationDate:     orDefault(rec.Year, types.UnknownDate),
		NonAcademicAuthors:  []string{},
		CompanyAffiliations: []string{},
	}

	seen := make(map[string]bool)
	for _, a := range rec.Authors {
		nonAcademic := c.IsNonAcademic(a.Affiliation)
		if onClassify != nil {
			onClassify(a, nonAcademic)
		}
		if !nonAcademic {
			continue
		}
		s.NonAcademicAuthors = append(s.NonAcademicAuthors, a.DisplayName())
		if !seen[a.Affiliation] {
			seen[a.Affiliation] = true
			s.CompanyAffiliations = append(s.CompanyAffiliations, a.Affiliation)
		}
	}
	return s
}

// FilterNonAcademic keeps the papers with at least one non-academic author,
// preserving order.
func FilterNonAcademic(in []types.PaperSummary) []types.PaperSummary {
	out := make([]types.PaperSummary, 0, len(in))
	for _, p := range in {
		if p.HasNonAcademicAuthors() {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
