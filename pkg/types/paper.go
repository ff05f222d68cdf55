// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures and run configuration shared by
// the search, fetch, classify and export stages.
package types

import "strings"

// Defaults substituted when a fetched record lacks the field.
const (
	UnknownTitle = "Unknown Title"
	UnknownDate  = "Unknown Date"
)

// Author is one entry of a record's author list.
type Author struct {
	// LastName and ForeName may each be empty.
	LastName string `json:"last_name" yaml:"last_name"`
	ForeName string `json:"fore_name" yaml:"fore_name"`

	// CollectiveName is set for group authors ("The XYZ Consortium").
	CollectiveName string `json:"collective_name,omitempty" yaml:"collective_name,omitempty"`

	// Affiliation is the first affiliation listed for the author, or empty.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// DisplayName returns "LastName ForeName", skipping empty parts. Group
// authors fall back to CollectiveName.
func (a Author) DisplayName() string {
	name := strings.TrimSpace(strings.Join(nonEmpty(a.LastName, a.ForeName), " "))
	if name == "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	return name
}

// PaperSummary is the flattened, classified output record for one paper.
// NonAcademicAuthors and CompanyAffiliations are always derived from the same
// subset of authors; CompanyAffiliations holds each affiliation once, in
// order of first occurrence.
type PaperSummary struct {
	PubmedID                 string   `json:"pubmed_id" yaml:"pubmed_id"`
	Title                    string   `json:"title" yaml:"title"`
	PublicationDate          string   `json:"publication_date" yaml:"publication_date"`
	NonAcademicAuthors       []string `json:"non_academic_authors" yaml:"non_academic_authors"`
	CompanyAffiliations      []string `json:"company_affiliations" yaml:"company_affiliations"`
	CorrespondingAuthorEmail string   `json:"corresponding_author_email" yaml:"corresponding_author_email"`
}

// AuthorsField returns the non-academic author names joined for tabular output.
func (p PaperSummary) AuthorsField() string {
	return strings.Join(p.NonAcademicAuthors, ", ")
}

// AffiliationsField returns the company affiliations joined for tabular output.
func (p PaperSummary) AffiliationsField() string {
	return strings.Join(p.CompanyAffiliations, "; ")
}

// HasNonAcademicAuthors reports whether any author was classified non-academic.
func (p PaperSummary) HasNonAcademicAuthors() bool {
	return len(p.NonAcademicAuthors) > 0
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
