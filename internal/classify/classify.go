// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether an author affiliation names a company.
//
// Matching is case-insensitive and substring-based, so "inc" also matches
// inside longer words ("Princeton"). Rules are checked in order and the
// first match wins:
//
//  1. empty or "unknown" affiliations are not flagged;
//  2. any company keyword flags the author as non-academic;
//  3. any academic keyword marks the author as academic;
//  4. anything else falls to Classifier.UnknownIsNonAcademic (false by default).
package classify

import (
	"strings"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// CompanyKeywords indicate a commercial entity.
var CompanyKeywords = []string{"pharmaceutical", "biotech", "corporation", "inc", "ltd", "gmbh"}

// AcademicKeywords indicate an academic or clinical entity.
var AcademicKeywords = []string{"university", "hospital", "institute"}

// Classifier holds the keyword sets and the policy for unrecognized text.
// The zero value has no keywords; build one with New.
type Classifier struct {
	company  []string
	academic []string

	// UnknownIsNonAcademic is the outcome for affiliations that match no keyword.
	UnknownIsNonAcademic bool
}

// New returns a classifier using the built-in keyword sets extended by cfg.
func New(cfg types.ClassifyConfig) *Classifier {
	return &Classifier{
		company:              mergeKeywords(CompanyKeywords, cfg.CompanyKeywords),
		academic:             mergeKeywords(AcademicKeywords, cfg.AcademicKeywords),
		UnknownIsNonAcademic: cfg.UnknownIsNonAcademic,
	}
}

// Default is the classifier with built-in keywords and the default policy.
var Default = New(types.ClassifyConfig{})

// IsNonAcademic reports whether affiliation names a non-academic employer.
func (c *Classifier) IsNonAcademic(affiliation string) bool {
	lower := strings.ToLower(strings.TrimSpace(affiliation))
	if lower == "" || lower == "unknown" {
		return false
	}
	if containsAny(lower, c.company) {
		return true
	}
	if containsAny(lower, c.academic) {
		return false
	}
	return c.UnknownIsNonAcademic
}

// IsNonAcademic classifies with the Default classifier.
func IsNonAcademic(affiliation string) bool {
	return Default.IsNonAcademic(affiliation)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// mergeKeywords lowercases extra entries and appends the ones not already present.
func mergeKeywords(base, extra []string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]bool, len(base)+len(extra))
	for _, kw := range base {
		seen[kw] = true
	}
	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
