// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// WriteCSV writes the header and one row per paper.
func WriteCSV(w io.Writer, papers []types.PaperSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range papers {
		if err := cw.Write(row(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes papers as an indented JSON array.
func WriteJSON(w io.Writer, papers []types.PaperSummary) error {
	if papers == nil {
		papers = []types.PaperSummary{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

// WriteYAML writes papers as a YAML sequence.
func WriteYAML(w io.Writer, papers []types.PaperSummary) error {
	if papers == nil {
		papers = []types.PaperSummary{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(papers); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// FormatTable writes papers as a human-readable table to w.
func FormatTable(papers []types.PaperSummary, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers with non-academic authors.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-50s  %-12s  %-30s  %s\n",
		"PubmedID", "Title", "Date", "Non-academic Author(s)", "Company Affiliation(s)")
	fmt.Fprintln(w, strings.Repeat("-", 140))

	for _, p := range papers {
		fmt.Fprintf(w, "%-10s  %-50s  %-12s  %-30s  %s\n",
			p.PubmedID,
			truncate(p.Title, 50),
			p.PublicationDate,
			truncate(p.AuthorsField(), 30),
			truncate(p.AffiliationsField(), 60))
	}

	fmt.Fprintf(w, "\n%d papers\n", len(papers))
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
