package fileops

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// Scanner discovers candidate video files under a folder.
type Scanner struct {
	settings *settings.Settings
	logger   *log.Logger
}

// NewScanner creates a scanner using the given settings.
func NewScanner(s *settings.Settings, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New()
	}
	return &Scanner{settings: s, logger: logger}
}

// ValidMovie reports whether the path is a regular file with one of the
// configured extensions.
func (sc *Scanner) ValidMovie(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range sc.settings.List("valid_movie_extensions") {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ScanFolder walks folder and returns a record for every valid video
// file, in walk order. Each record carries filesystem-derived fields
// and a title guess parsed out of the filename.
func (sc *Scanner) ScanFolder(folder string) ([]record.Record, error) {
	var records []record.Record

	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			sc.logger.Warnf("Error accessing path %q: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !sc.ValidMovie(path) {
			return nil
		}
		records = append(records, sc.recordForFile(path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sc.logger.Infof("Scan complete. Found %d video files in %s", len(records), folder)
	return records, nil
}

// recordForFile builds the initial record for one discovered file.
func (sc *Scanner) recordForFile(path string) record.Record {
	rec := record.New(path)

	if info, err := os.Stat(path); err == nil {
		rec.FileSize = info.Size()
		rec.AddedAt = info.ModTime()
	}

	base := filepath.Base(path)
	if parsed, err := ptn.Parse(base); err == nil && parsed.Title != "" {
		rec = rec.WithExtra("title_guess", parsed.Title)
		if parsed.Year != 0 {
			rec = rec.WithExtra("year_guess", strconv.Itoa(parsed.Year))
		}
		if parsed.Resolution != "" {
			rec = rec.WithExtra("resolution", parsed.Resolution)
		}
		if parsed.Group != "" {
			rec = rec.WithExtra("release_group", parsed.Group)
		}
	} else {
		// Crude fallback: the dotted basename without its extension.
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		rec = rec.WithExtra("title_guess", strings.ReplaceAll(stem, ".", " "))
	}

	return rec
}
