package subtitles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/catalog"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// fakeSearcher records the queries it received and answers from a
// per-call script.
type fakeSearcher struct {
	queries [][]catalog.SubtitleQuery
	replies [][]catalog.SubtitleResult
	err     error
}

func (f *fakeSearcher) SearchSubtitles(queries []catalog.SubtitleQuery) ([]catalog.SubtitleResult, error) {
	f.queries = append(f.queries, queries)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return nil, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func identifiedMovie() record.Record {
	rec := record.New("/films/drift.mkv")
	rec.FileHash = "09a2c497663259cb"
	rec.FileSize = 732142080
	rec.Kind = record.KindMovie
	rec.Title = "Drift"
	rec.CatalogID = "0403358"
	return rec
}

func TestSearchForBuildsQueryFromRecord(t *testing.T) {
	searcher := &fakeSearcher{}
	m := NewMatcher(settings.Defaults(), searcher, nil)

	_, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	require.Len(t, searcher.queries, 1)
	require.Len(t, searcher.queries[0], 1)
	q := searcher.queries[0][0]
	assert.Equal(t, "09a2c497663259cb", q.Hash)
	assert.Equal(t, int64(732142080), q.Size)
	assert.Equal(t, "0403358", q.CatalogID)
	assert.Equal(t, "Drift", q.Title)
	assert.Equal(t, []string{"eng"}, q.Languages)
	assert.Zero(t, q.Season)
	assert.Zero(t, q.Episode)
}

func TestSearchForEpisodeQueriesSeriesFields(t *testing.T) {
	rec := record.New("/series/s01e03.mkv")
	rec.Kind = record.KindEpisode
	rec.Title = `"Some Series" The One With The Test`
	rec.SeriesTitle = "Some Series"
	rec.EpisodeTitle = "The One With The Test"
	rec.SeasonNumber = 1
	rec.EpisodeNumber = 3

	searcher := &fakeSearcher{}
	m := NewMatcher(settings.Defaults(), searcher, nil)
	_, err := m.SearchFor(rec)
	require.NoError(t, err)

	q := searcher.queries[0][0]
	assert.Equal(t, "Some Series", q.Title)
	assert.Equal(t, 1, q.Season)
	assert.Equal(t, 3, q.Episode)
}

func TestSearchForQueriesEachLanguageInOrder(t *testing.T) {
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{
			{{MatchedBy: "moviehash", Release: "en-release"}},
			{{MatchedBy: "moviehash", Release: "de-release"}},
		},
	}
	s := settings.New(map[string]string{"subtitle_languages": "en, de"})
	m := NewMatcher(s, searcher, nil)

	out, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, []string{"eng"}, searcher.queries[0][0].Languages)
	assert.Equal(t, []string{"deu"}, searcher.queries[1][0].Languages)

	require.Len(t, out.Subtitles, 2)
	assert.Equal(t, "en", out.Subtitles[0].Language)
	assert.Equal(t, "en-release", out.Subtitles[0].Release)
	assert.Equal(t, "de", out.Subtitles[1].Language)
	assert.Equal(t, "de-release", out.Subtitles[1].Release)
}

func TestSearchForRanksByMatchSpecificityFirst(t *testing.T) {
	// The hash match wins even with the lowest download count.
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{{
			{MatchedBy: "fulltext", Release: "loose", DownloadCount: 9000},
			{MatchedBy: "moviehash", Release: "exact", DownloadCount: 3},
			{MatchedBy: "imdbid", Release: "byid", DownloadCount: 5000},
		}},
	}
	m := NewMatcher(settings.Defaults(), searcher, nil)

	out, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	require.Len(t, out.Subtitles, 3)
	assert.Equal(t, "exact", out.Subtitles[0].Release)
	assert.Equal(t, "byid", out.Subtitles[1].Release)
	assert.Equal(t, "loose", out.Subtitles[2].Release)
}

func TestSearchForTieBreaksOnDownloadsThenRating(t *testing.T) {
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{{
			{MatchedBy: "moviehash", Release: "few", DownloadCount: 10, Rating: 9.9},
			{MatchedBy: "moviehash", Release: "many", DownloadCount: 100, Rating: 1.0},
			{MatchedBy: "moviehash", Release: "many-better", DownloadCount: 100, Rating: 8.0},
		}},
	}
	m := NewMatcher(settings.Defaults(), searcher, nil)

	out, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	assert.Equal(t, "many-better", out.Subtitles[0].Release)
	assert.Equal(t, "many", out.Subtitles[1].Release)
	assert.Equal(t, "few", out.Subtitles[2].Release)
}

func TestSearchForKeepsTopMaxSubtitlesPerLanguage(t *testing.T) {
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{{
			{MatchedBy: "moviehash", Release: "a", DownloadCount: 4},
			{MatchedBy: "moviehash", Release: "b", DownloadCount: 3},
			{MatchedBy: "moviehash", Release: "c", DownloadCount: 2},
			{MatchedBy: "moviehash", Release: "d", DownloadCount: 1},
		}},
	}
	s := settings.New(map[string]string{"max_subtitles": "2"})
	m := NewMatcher(s, searcher, nil)

	out, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	require.Len(t, out.Subtitles, 2)
	assert.Equal(t, "a", out.Subtitles[0].Release)
	assert.Equal(t, "b", out.Subtitles[1].Release)
}

func TestSearchForCanonicalizesEncodings(t *testing.T) {
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{{
			{MatchedBy: "moviehash", Release: "utf", Encoding: "UTF-8", DownloadCount: 3},
			{MatchedBy: "moviehash", Release: "odd", Encoding: "not-a-charset", DownloadCount: 2},
			{MatchedBy: "moviehash", Release: "none", DownloadCount: 1},
		}},
	}
	m := NewMatcher(settings.Defaults(), searcher, nil)

	out, err := m.SearchFor(identifiedMovie())
	require.NoError(t, err)

	require.Len(t, out.Subtitles, 3)
	assert.Equal(t, "UTF-8", out.Subtitles[0].Encoding)
	assert.Equal(t, "unknown", out.Subtitles[1].Encoding)
	assert.Equal(t, "unknown", out.Subtitles[2].Encoding)
}

func TestSearchForDoesNotMutateInput(t *testing.T) {
	searcher := &fakeSearcher{
		replies: [][]catalog.SubtitleResult{{
			{MatchedBy: "moviehash", Release: "x"},
		}},
	}
	m := NewMatcher(settings.Defaults(), searcher, nil)

	rec := identifiedMovie()
	_, err := m.SearchFor(rec)
	require.NoError(t, err)
	assert.Nil(t, rec.Subtitles)
}
