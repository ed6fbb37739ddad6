// Package subtitles finds, ranks and fetches subtitle candidates for
// identified records.
package subtitles

import (
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/language"

	"github.com/mkrastev/videman/pkg/core/catalog"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// Searcher is the slice of the catalog client the matcher depends on.
type Searcher interface {
	SearchSubtitles(queries []catalog.SubtitleQuery) ([]catalog.SubtitleResult, error)
}

// Matcher queries the catalog for subtitle candidates and attaches the
// best ones to each record.
type Matcher struct {
	settings *settings.Settings
	searcher Searcher
	logger   *log.Logger
}

// NewMatcher creates a matcher over the given catalog searcher.
func NewMatcher(s *settings.Settings, searcher Searcher, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New()
	}
	return &Matcher{settings: s, searcher: searcher, logger: logger}
}

// SearchFor queries once per configured language, ranks the results and
// attaches the top max_subtitles candidates per language, concatenated
// in configured language order. The input record is not modified.
func (m *Matcher) SearchFor(rec record.Record) (record.Record, error) {
	out := rec.Clone()
	maxPerLanguage := m.settings.Int("max_subtitles", 3)

	var picked []record.Subtitle
	for _, lang := range m.settings.List("subtitle_languages") {
		query := m.queryFor(rec, lang)
		results, err := m.searcher.SearchSubtitles([]catalog.SubtitleQuery{query})
		if err != nil {
			return rec.Clone(), err
		}

		rankResults(results)
		if len(results) > maxPerLanguage {
			results = results[:maxPerLanguage]
		}
		for _, res := range results {
			picked = append(picked, record.Subtitle{
				Language:      lang,
				Release:       res.Release,
				FrameRate:     res.FrameRate,
				Rating:        res.Rating,
				DownloadCount: res.DownloadCount,
				Encoding:      canonicalEncoding(res.Encoding),
				URL:           res.URL,
			})
		}
	}

	out.Subtitles = picked
	return out, nil
}

// queryFor builds a single-language search from whichever record fields
// are present.
func (m *Matcher) queryFor(rec record.Record, lang string) catalog.SubtitleQuery {
	query := catalog.SubtitleQuery{
		Hash:      rec.FileHash,
		Size:      rec.FileSize,
		CatalogID: rec.CatalogID,
		Title:     rec.Title,
		Languages: []string{m.wireLanguage(lang)},
	}
	if rec.Kind == record.KindEpisode {
		query.Title = rec.SeriesTitle
		query.Season = rec.SeasonNumber
		query.Episode = rec.EpisodeNumber
	}
	return query
}

// wireLanguage converts a configured language code to the 3-letter form
// the wire protocol expects. Unparseable codes pass through as given.
func (m *Matcher) wireLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		m.logger.Warnf("subtitles: unparseable language %q, sending as-is", lang)
		return lang
	}
	base, _ := tag.Base()
	return base.ISO3()
}

// matchRank orders match specificity: a hash match beats a catalog-id
// match beats anything else.
func matchRank(matchedBy string) int {
	switch matchedBy {
	case "moviehash":
		return 0
	case "imdbid":
		return 1
	}
	return 2
}

// rankResults sorts candidates best-first: match specificity, then
// download count descending, then rating descending.
func rankResults(results []catalog.SubtitleResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := matchRank(results[i].MatchedBy), matchRank(results[j].MatchedBy)
		if ri != rj {
			return ri < rj
		}
		if results[i].DownloadCount != results[j].DownloadCount {
			return results[i].DownloadCount > results[j].DownloadCount
		}
		return results[i].Rating > results[j].Rating
	})
}

// canonicalEncoding resolves a character-encoding name to its IANA
// canonical form, degrading to "unknown" when the name is not
// recognized.
func canonicalEncoding(name string) string {
	if name == "" {
		return "unknown"
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "unknown"
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil || canonical == "" {
		return "unknown"
	}
	return canonical
}
