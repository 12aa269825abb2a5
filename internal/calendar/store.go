package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	cacheFilePattern = "prod_calend_%d_%s.json"
	tmpSuffix        = ".tmp"
	dirPermissions   = 0o755
	filePermissions  = 0o644
)

// FileStore keeps one JSON document per (year, country) under dir
type FileStore struct {
	dir     string
	country string
}

// NewFileStore creates a new FileStore
func NewFileStore(dir, country string) *FileStore {
	return &FileStore{
		dir:     dir,
		country: strings.ToUpper(country),
	}
}

// Path returns the cache file path for year
func (s *FileStore) Path(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf(cacheFilePattern, year, s.country))
}

// Load reads and validates the cached document for year.
// os.ErrNotExist is returned (wrapped) when there is no file.
func (s *FileStore) Load(year int) (*Document, error) {
	data, err := os.ReadFile(s.Path(year))
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, corruptData(year, "failed to parse cache file: %w", err)
	}

	if err := normalizeDocument(&doc, year); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Save writes doc, replacing any previous file for the same year.
// The directory is created if needed.
func (s *FileStore) Save(doc *Document) error {
	if err := os.MkdirAll(s.dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal calendar: %w", err)
	}

	// Write to temp file first
	path := s.Path(doc.Year)
	tmpFile := path + tmpSuffix
	if err := os.WriteFile(tmpFile, buf.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}
