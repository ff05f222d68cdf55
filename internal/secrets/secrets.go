// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads NCBI credentials from a directory of plain-text
// files and from dotenv files. In a secrets directory each file is one
// secret: the filename is the key and the trimmed contents are the value.
//
// Recognized key files: ncbi-api-key, ncbi-email.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key files read from the secrets directory.
const (
	APIKey = "ncbi-api-key"
	Email  = "ncbi-email"
)

// Store holds the secrets found in one directory.
type Store struct {
	values map[string]string

	// Skipped lists files that exist but could not be read.
	Skipped []string
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty store. Unreadable files are recorded in
// Skipped and do not abort the load.
func Load(dir string) (*Store, error) {
	s := &Store{values: map[string]string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			s.Skipped = append(s.Skipped, name)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s.values[name] = value
		}
	}
	return s, nil
}

// Lookup returns the secret stored under key.
func (s *Store) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Get returns the secret stored under key, or fallback.
func (s *Store) Get(key, fallback string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return fallback
}

// Len reports how many secrets were loaded.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// LoadDotenv exports the variables in the given dotenv files into the
// process environment without overriding variables that are already set.
// Files that do not exist are ignored; it returns the files that were read.
func LoadDotenv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
