// Package library is the orchestration façade: it owns the ordered
// record collection and drives every processing stage over it.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/catalog"
	"github.com/mkrastev/videman/pkg/core/fileops"
	"github.com/mkrastev/videman/pkg/core/imdb"
	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/probe"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/rename"
	"github.com/mkrastev/videman/pkg/core/settings"
	"github.com/mkrastev/videman/pkg/core/store"
	"github.com/mkrastev/videman/pkg/core/subtitles"
)

// Cataloger is the slice of the remote catalog client the library
// depends on.
type Cataloger interface {
	LookupHashes(hashes []string) (map[string]catalog.Attributes, error)
	SearchSubtitles(queries []catalog.SubtitleQuery) ([]catalog.SubtitleResult, error)
}

// Library binds the processing stages to one ordered record collection.
// Every stage replaces Records with a new slice; records themselves are
// never mutated in place.
type Library struct {
	Records []record.Record

	settings   *settings.Settings
	catalog    Cataloger
	scanner    *fileops.Scanner
	matcher    *subtitles.Matcher
	downloader *subtitles.Downloader
	enricher   *imdb.Enricher
	prober     *probe.Reader
	store      *store.Store
	renamer    *rename.Renamer
	logger     *log.Logger
}

// Option adjusts a Library during construction.
type Option func(*Library)

// WithCatalog substitutes the remote catalog client.
func WithCatalog(c Cataloger) Option {
	return func(l *Library) { l.catalog = c }
}

// WithProber substitutes the media prober.
func WithProber(p probe.Prober) Option {
	return func(l *Library) { l.prober = probe.NewReader(l.settings, p, l.logger) }
}

// WithSuggestions substitutes the metadata suggestion client.
func WithSuggestions(c *imdb.Client) Option {
	return func(l *Library) { l.enricher = imdb.NewEnricher(l.settings, c, l.logger) }
}

// New builds a library over the given settings. By default it talks to
// the real remote services; options replace individual collaborators.
func New(s *settings.Settings, logger *log.Logger, opts ...Option) (*Library, error) {
	if s == nil {
		s = settings.Defaults()
	}
	if logger == nil {
		logger = log.New()
	}

	l := &Library{
		settings:   s,
		scanner:    fileops.NewScanner(s, logger),
		downloader: subtitles.NewDownloader(s, nil, logger),
		store:      store.New(s, logger),
		renamer:    rename.New(s, logger),
		logger:     logger,
	}
	l.enricher = imdb.NewEnricher(s, imdb.NewClient(nil, logger), logger)
	l.prober = probe.NewReader(s, nil, logger)

	for _, opt := range opts {
		opt(l)
	}

	if l.catalog == nil {
		client, err := catalog.New(catalog.Config{
			Username:  s.Get("catalog_username"),
			Password:  s.Get("catalog_password"),
			Language:  s.Get("catalog_language"),
			UserAgent: s.Get("catalog_useragent"),
			Timeout:   time.Duration(s.Int("catalog_timeout", 20)) * time.Second,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		l.catalog = client
	}
	l.matcher = subtitles.NewMatcher(s, l.catalog, logger)
	return l, nil
}

// Settings exposes the option table the library was built over.
func (l *Library) Settings() *settings.Settings { return l.settings }

// ScanFolder appends every valid video file under folder to the
// collection.
func (l *Library) ScanFolder(folder string) error {
	found, err := l.scanner.ScanFolder(folder)
	if err != nil {
		return err
	}
	l.Records = append(l.Records, found...)
	return nil
}

// Fingerprint computes the content fingerprint for every record that
// does not have one yet. Fingerprinting is local work and runs on the
// calling goroutine.
func (l *Library) Fingerprint() error {
	out := make([]record.Record, len(l.Records))
	for i, rec := range l.Records {
		out[i] = rec.Clone()
		if rec.FileHash != "" {
			continue
		}
		hash, size, err := fileops.Fingerprint(rec.Filename)
		if err != nil {
			return fmt.Errorf("library: fingerprint %s: %w", rec.Filename, err)
		}
		out[i].FileHash = hash
		out[i].FileSize = size
	}
	l.Records = out
	return nil
}

// Identify looks every fingerprinted record up in the remote catalog.
// The lookups go out in one batched call; attribute application then
// runs through the pipeline so progress is reported per record.
func (l *Library) Identify(onProgress func(pipeline.Snapshot)) (Summary, error) {
	var hashes []string
	for _, rec := range l.Records {
		if rec.FileHash != "" {
			hashes = append(hashes, rec.FileHash)
		}
	}
	attrs, err := l.catalog.LookupHashes(hashes)
	if err != nil {
		return Summary{}, fmt.Errorf("library: identify: %w", err)
	}

	concurrency := l.settings.Int("identify_concurrency", 1)
	before := l.Records
	out, batchErr := pipeline.Run(before, concurrency, func(rec record.Record) (record.Record, error) {
		updated, err := catalog.ApplyAttributes(rec, attrs[rec.FileHash])
		if err != nil {
			l.logger.Warnf("library: identify %s: %v", rec.Filename, err)
		}
		return updated, err
	}, onProgress)
	l.Records = out
	return summarize(before, out, batchErr), batchErrOrNil(batchErr)
}

// FetchMetadata enriches identified records with secondary metadata
// through the worker pool.
func (l *Library) FetchMetadata(ctx context.Context, onProgress func(pipeline.Snapshot)) (Summary, error) {
	before := l.Records
	out, err := l.enricher.EnrichAll(ctx, before, onProgress)
	l.Records = out
	return summarize(before, out, asBatchError(err)), err
}

// ReadInfo probes every record's file for technical metadata.
func (l *Library) ReadInfo(ctx context.Context, onProgress func(pipeline.Snapshot)) (Summary, error) {
	before := l.Records
	out, err := l.prober.ReadAll(ctx, before, onProgress)
	l.Records = out
	return summarize(before, out, asBatchError(err)), err
}

// FindSubtitles searches subtitle candidates for every identified
// record.
func (l *Library) FindSubtitles(onProgress func(pipeline.Snapshot)) (Summary, error) {
	concurrency := l.settings.Int("metadata_concurrency", 8)
	before := l.Records
	out, batchErr := pipeline.Run(before, concurrency, func(rec record.Record) (record.Record, error) {
		if !rec.Identified() {
			return rec.Clone(), nil
		}
		updated, err := l.matcher.SearchFor(rec)
		if err != nil {
			l.logger.Warnf("library: subtitles %s: %v", rec.Filename, err)
		}
		return updated, err
	}, onProgress)
	l.Records = out
	return summarize(before, out, batchErr), batchErrOrNil(batchErr)
}

// DownloadSubtitles fetches every attached subtitle candidate.
func (l *Library) DownloadSubtitles(onProgress func(pipeline.Snapshot)) (Summary, error) {
	before := l.Records
	out, err := l.downloader.DownloadAll(before, onProgress)
	l.Records = out
	return summarize(before, out, asBatchError(err)), err
}

// Rename materializes every identified record under its templated
// library path.
func (l *Library) Rename(onProgress func(done, total int)) (Summary, error) {
	before := l.Records
	out, err := l.renamer.RenameAll(before, onProgress)
	l.Records = out
	return summarize(before, out, asBatchError(err)), err
}

// Save writes a sidecar file for every record.
func (l *Library) Save() error {
	return l.store.SaveAll(l.Records)
}

// Load replaces the collection with the sidecars found under folder.
func (l *Library) Load(folder string) error {
	records, err := l.store.LoadAll(folder)
	if err != nil {
		return err
	}
	l.Records = records
	return nil
}

// catalogIDFromSuggestion strips the "tt" namespace prefix so the id
// matches what hash lookups produce.
func catalogIDFromSuggestion(id string) string {
	return strings.TrimPrefix(id, "tt")
}

func batchErrOrNil(batchErr *pipeline.BatchError) error {
	if batchErr != nil {
		return batchErr
	}
	return nil
}

func asBatchError(err error) *pipeline.BatchError {
	if batchErr, ok := err.(*pipeline.BatchError); ok {
		return batchErr
	}
	return nil
}
