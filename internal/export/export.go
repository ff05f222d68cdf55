// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes classified paper summaries to a file or a terminal
// table. Files are written to a temporary sibling and renamed into place, so
// a failed export never leaves a partial file at the destination.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// fileMode is the permission of exported files.
const fileMode = 0o644

// Header is the fixed column set of tabular exports.
var Header = []string{
	"PubmedID",
	"Title",
	"Publication Date",
	"Non-academic Author(s)",
	"Company Affiliation(s)",
	"Corresponding Author Email",
}

// Format selects the file encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// FormatFor picks the format from the destination's extension. Anything
// unrecognized is CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// row returns the tabular cells of one summary, in Header order.
func row(p types.PaperSummary) []string {
	return []string{
		p.PubmedID,
		p.Title,
		p.PublicationDate,
		p.AuthorsField(),
		p.AffiliationsField(),
		p.CorrespondingAuthorEmail,
	}
}

// WriteFile writes papers to path in the format its extension selects.
func WriteFile(path string, papers []types.PaperSummary) error {
	if path == "" {
		return fmt.Errorf("no output path")
	}
	switch FormatFor(path) {
	case FormatSQLite:
		return writeSQLite(path, papers)
	case FormatJSON:
		return writeAtomic(path, func(w io.Writer) error { return WriteJSON(w, papers) })
	case FormatYAML:
		return writeAtomic(path, func(w io.Writer) error { return WriteYAML(w, papers) })
	default:
		return writeAtomic(path, func(w io.Writer) error { return WriteCSV(w, papers) })
	}
}

// writeAtomic streams into a temp file beside path and renames it over path
// only when fill and Close both succeed.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving export into place: %w", err)
	}
	return nil
}
