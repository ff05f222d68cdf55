// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const sqliteSchema = `CREATE TABLE papers (
	position INTEGER PRIMARY KEY,
	pubmed_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	publication_date TEXT NOT NULL,
	non_academic_authors TEXT NOT NULL,
	company_affiliations TEXT NOT NULL,
	corresponding_author_email TEXT NOT NULL
)`

// writeSQLite builds a fresh database in a temp file and renames it over
// path. Rows keep export order in the position column.
func writeSQLite(path string, papers []types.PaperSummary) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := fillSQLite(tmpPath, papers); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
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

func fillSQLite(dbPath string, papers []types.PaperSummary) (err error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO papers (position, pubmed_id, title, publication_date,
		non_academic_authors, company_affiliations, corresponding_author_email)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range papers {
		if _, err := stmt.Exec(i+1, p.PubmedID, p.Title, p.PublicationDate,
			p.AuthorsField(), p.AffiliationsField(), p.CorrespondingAuthorEmail); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting %s: %w", p.PubmedID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}
