// Package store persists records as yaml sidecar files so a scanned
// library survives restarts.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

var storePlaceholderExp = regexp.MustCompile(`%\{([A-Za-z0-9_]+)\}`)

// Store reads and writes record sidecar files. The sidecar path is
// rendered from the store_file template; store_match decides which
// files under a folder count as sidecars.
type Store struct {
	settings *settings.Settings
	logger   *log.Logger
}

// New creates a store over the given settings.
func New(s *settings.Settings, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New()
	}
	return &Store{settings: s, logger: logger}
}

// PathFor renders the sidecar path for one record.
func (s *Store) PathFor(rec record.Record) string {
	values := rec.TemplateValues()
	return storePlaceholderExp.ReplaceAllStringFunc(
		s.settings.Get("store_file"), func(match string) string {
			name := storePlaceholderExp.FindStringSubmatch(match)[1]
			return values[name]
		})
}

// Save writes one record's sidecar file.
func (s *Store) Save(rec record.Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", rec.Filename, err)
	}
	path := s.PathFor(rec)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

// SaveAll writes a sidecar for every record, stopping at the first
// failure.
func (s *Store) SaveAll(records []record.Record) error {
	for _, rec := range records {
		if err := s.Save(rec); err != nil {
			return err
		}
	}
	return nil
}

// Load reads one sidecar file back into a record.
func (s *Store) Load(path string) (record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Record{}, fmt.Errorf("store: read %s: %w", path, err)
	}
	var rec record.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return record.Record{}, fmt.Errorf("store: unmarshal %s: %w", path, err)
	}
	return rec, nil
}

// LoadAll walks folder and loads every file matching store_match, in
// path order. Unreadable sidecars are logged and skipped.
func (s *Store) LoadAll(folder string) ([]record.Record, error) {
	match, err := regexp.Compile(s.settings.Get("store_match"))
	if err != nil {
		return nil, fmt.Errorf("store: bad store_match: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Warnf("store: skipping %s: %v", path, walkErr)
			return nil
		}
		if !d.IsDir() && match.MatchString(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: walk %s: %w", folder, err)
	}
	sort.Strings(paths)

	records := make([]record.Record, 0, len(paths))
	for _, path := range paths {
		rec, err := s.Load(path)
		if err != nil {
			s.logger.Warnf("store: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
