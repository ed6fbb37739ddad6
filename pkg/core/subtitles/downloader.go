package subtitles

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

var subtitlePlaceholderExp = regexp.MustCompile(`%\{([A-Za-z0-9_]+)\}`)

// Downloader fetches subtitle payloads and writes them next to their
// records under a templated filename.
type Downloader struct {
	settings *settings.Settings
	client   *http.Client
	logger   *log.Logger
}

// NewDownloader creates a downloader. A nil httpClient gets a default
// one with a sane timeout.
func NewDownloader(s *settings.Settings, httpClient *http.Client, logger *log.Logger) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.New()
	}
	return &Downloader{settings: s, client: httpClient, logger: logger}
}

// localFilename renders the subtitle_pattern template for one subtitle.
// The index is 1-based and counted within the subtitle's language.
func (d *Downloader) localFilename(rec record.Record, sub record.Subtitle, index int) string {
	values := rec.TemplateValues()
	for k, v := range d.settings.Values() {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	values["sub_language"] = sub.Language
	values["sub_index"] = strconv.Itoa(index)

	return subtitlePlaceholderExp.ReplaceAllStringFunc(
		d.settings.Get("subtitle_pattern"), func(match string) string {
			name := subtitlePlaceholderExp.FindStringSubmatch(match)[1]
			return values[name]
		})
}

// DownloadFor fetches every subtitle attached to the record. Failures
// are collected per subtitle; subtitles that did download keep their
// local filename in the returned record.
func (d *Downloader) DownloadFor(rec record.Record) (record.Record, error) {
	out := rec.Clone()

	var errs []error
	perLanguage := make(map[string]int)
	for i := range out.Subtitles {
		sub := &out.Subtitles[i]
		perLanguage[sub.Language]++
		if sub.URL == "" {
			continue
		}
		index := perLanguage[sub.Language]
		path := d.localFilename(out, *sub, index)
		if err := d.fetch(sub.URL, path); err != nil {
			errs = append(errs, fmt.Errorf("subtitle %s.%d: %w", sub.Language, index, err))
			continue
		}
		sub.LocalFilename = path
	}
	return out, errors.Join(errs...)
}

// DownloadAll fetches subtitles for every record through the worker
// pool, isolating per-record failures.
func (d *Downloader) DownloadAll(records []record.Record, onProgress func(pipeline.Snapshot)) ([]record.Record, error) {
	concurrency := d.settings.Int("metadata_concurrency", 8)
	out, batchErr := pipeline.Run(records, concurrency, func(rec record.Record) (record.Record, error) {
		updated, err := d.DownloadFor(rec)
		if err != nil {
			d.logger.Warnf("subtitles: %s: %v", rec.Filename, err)
		}
		return updated, err
	}, onProgress)
	if batchErr != nil {
		return out, batchErr
	}
	return out, nil
}

// fetch downloads one gzip-compressed payload and writes the
// decompressed text to path.
func (d *Downloader) fetch(url, path string) error {
	resp, err := d.client.Get(url)
	if err != nil {
		return fmt.Errorf("subtitles: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subtitles: fetch: unexpected status %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("subtitles: decompress: %w", err)
	}
	defer gz.Close()

	body, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("subtitles: decompress: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("subtitles: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("subtitles: write: %w", err)
	}
	return nil
}
