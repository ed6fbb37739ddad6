package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/record"
)

func TestApplyAttributesMovie(t *testing.T) {
	rec := record.New("/films/x.mkv")
	out, err := ApplyAttributes(rec, Attributes{
		"MovieKind":   "movie",
		"MovieName":   "X",
		"MovieYear":   "2004",
		"MovieImdbID": "42",
	})
	require.NoError(t, err)

	assert.Equal(t, record.KindMovie, out.Kind)
	assert.Equal(t, "X", out.Title)
	assert.Equal(t, 2004, out.Year)
	assert.Equal(t, "42", out.CatalogID)
	assert.Empty(t, out.SeriesTitle)

	// Input is never mutated.
	assert.Equal(t, record.KindUnknown, rec.Kind)
}

func TestApplyAttributesEpisode(t *testing.T) {
	out, err := ApplyAttributes(record.New("/series/y.mkv"), Attributes{
		"MovieKind":        "episode",
		"MovieName":        `"Mist" The Long Night`,
		"MovieYear":        "2005",
		"MovieImdbID":      "4242",
		"SeriesSeason":     "2",
		"SeriesEpisode":    "7",
		"SeriesIMDBParent": "1111",
	})
	require.NoError(t, err)

	assert.Equal(t, record.KindEpisode, out.Kind)
	assert.Equal(t, "Mist", out.SeriesTitle)
	assert.Equal(t, "The Long Night", out.EpisodeTitle)
	assert.Equal(t, 2, out.SeasonNumber)
	assert.Equal(t, 7, out.EpisodeNumber)
	assert.Equal(t, "1111", out.SeriesCatalogID)
}

func TestApplyAttributesEpisodeWithoutParentID(t *testing.T) {
	out, err := ApplyAttributes(record.New("/series/y.mkv"), Attributes{
		"MovieKind":     "episode",
		"MovieName":     `"Mist" Pilot`,
		"MovieImdbID":   "4242",
		"SeriesSeason":  "1",
		"SeriesEpisode": "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "4242", out.SeriesCatalogID)
}

func TestApplyAttributesMalformedEpisodeTitle(t *testing.T) {
	rec := record.New("/series/y.mkv")
	out, err := ApplyAttributes(rec, Attributes{
		"MovieKind":     "episode",
		"MovieName":     "Mist without quotes",
		"SeriesSeason":  "2",
		"SeriesEpisode": "7",
	})
	assert.ErrorIs(t, err, ErrMalformedTitle)

	// Identification is atomic: nothing was set.
	assert.Equal(t, record.KindUnknown, out.Kind)
	assert.Empty(t, out.Title)
	assert.Empty(t, out.SeriesTitle)
	assert.Zero(t, out.SeasonNumber)
}

func TestApplyAttributesUnknownKindLeavesRecordAlone(t *testing.T) {
	rec := record.New("/films/x.mkv")

	for _, attrs := range []Attributes{
		nil,
		{},
		{"MovieKind": "documentary", "MovieName": "Nope"},
	} {
		out, err := ApplyAttributes(rec, attrs)
		require.NoError(t, err)
		assert.Equal(t, record.KindUnknown, out.Kind)
		assert.Empty(t, out.Title)
	}
}
