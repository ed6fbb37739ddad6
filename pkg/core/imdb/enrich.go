package imdb

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// Enricher attaches secondary suggestion attributes (cast, popularity
// rank, missing years) to records that already carry a catalog id.
type Enricher struct {
	settings *settings.Settings
	client   *Client
	logger   *log.Logger
}

// NewEnricher creates an enricher over the given suggestion client.
func NewEnricher(s *settings.Settings, client *Client, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.New()
	}
	return &Enricher{settings: s, client: client, logger: logger}
}

// SuggestionClient exposes the underlying suggestion client, used for
// free-text searches during manual identification.
func (e *Enricher) SuggestionClient() *Client {
	return e.client
}

// EnrichFor looks the record's title up and, when a suggestion carries
// the record's own catalog id, merges its extra attributes in. Records
// without an id, and titles the endpoint does not know, pass through
// unchanged.
func (e *Enricher) EnrichFor(ctx context.Context, rec record.Record) (record.Record, error) {
	if !rec.Identified() || rec.CatalogID == "" {
		return rec.Clone(), nil
	}

	query := rec.Title
	if rec.Kind == record.KindEpisode {
		query = rec.SeriesTitle
	}
	suggestions, err := e.client.Search(ctx, query)
	if err != nil {
		return rec.Clone(), err
	}

	wantID := "tt" + rec.CatalogID
	for _, s := range suggestions {
		if s.ID != wantID {
			continue
		}
		out := rec.Clone()
		if s.Starring != "" {
			out = out.WithExtra("starring", s.Starring)
		}
		if s.Rank > 0 {
			out = out.WithExtra("imdb_rank", strconv.Itoa(s.Rank))
		}
		if out.Year == 0 && s.Year != 0 {
			out.Year = s.Year
		}
		return out, nil
	}
	return rec.Clone(), nil
}

// EnrichAll runs EnrichFor over every record through the worker pool,
// isolating per-record failures.
func (e *Enricher) EnrichAll(ctx context.Context, records []record.Record, onProgress func(pipeline.Snapshot)) ([]record.Record, error) {
	concurrency := e.settings.Int("metadata_concurrency", 8)
	out, batchErr := pipeline.Run(records, concurrency, func(rec record.Record) (record.Record, error) {
		updated, err := e.EnrichFor(ctx, rec)
		if err != nil {
			e.logger.Warnf("imdb: %s: %v", rec.Filename, err)
		}
		return updated, err
	}, onProgress)
	if batchErr != nil {
		return out, batchErr
	}
	return out, nil
}
