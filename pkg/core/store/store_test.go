package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

func sampleRecord(dir string) record.Record {
	rec := record.New(filepath.Join(dir, "drift.mkv"))
	rec.FileHash = "09a2c497663259cb"
	rec.FileSize = 732142080
	rec.AddedAt = time.Date(2015, 3, 14, 9, 26, 53, 0, time.UTC)
	rec.Kind = record.KindMovie
	rec.Title = "Drift"
	rec.Year = 2004
	rec.CatalogID = "0403358"
	rec.Subtitles = []record.Subtitle{{Language: "en", Release: "Drift.2004.720p", Rating: 8.5}}
	rec = rec.WithExtra("video_codec", "h264")
	return rec
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(settings.Defaults(), nil)
	rec := sampleRecord(dir)

	require.NoError(t, s.Save(rec))

	sidecar := rec.Filename + ".videman"
	_, err := os.Stat(sidecar)
	require.NoError(t, err)

	loaded, err := s.Load(sidecar)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestPathForUsesTemplate(t *testing.T) {
	s := New(settings.New(map[string]string{
		"store_file": "/sidecars/%{file_hash}.yml",
	}), nil)

	rec := sampleRecord("/films")
	assert.Equal(t, "/sidecars/09a2c497663259cb.yml", s.PathFor(rec))
}

func TestLoadAllPicksUpOnlyMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(settings.Defaults(), nil)

	first := sampleRecord(dir)
	second := sampleRecord(dir)
	second.Filename = filepath.Join(dir, "other.mkv")
	second.Title = "Other"
	require.NoError(t, s.SaveAll([]record.Record{first, second}))

	// Not a sidecar, must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	loaded, err := s.LoadAll(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	titles := []string{loaded[0].Title, loaded[1].Title}
	assert.ElementsMatch(t, []string{"Drift", "Other"}, titles)
}

func TestLoadAllSkipsCorruptSidecars(t *testing.T) {
	dir := t.TempDir()
	s := New(settings.Defaults(), nil)

	require.NoError(t, s.Save(sampleRecord(dir)))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "broken.mkv.videman"), []byte("{not yaml"), 0o644))

	loaded, err := s.LoadAll(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Drift", loaded[0].Title)
}

func TestLoadMissingFile(t *testing.T) {
	s := New(settings.Defaults(), nil)
	_, err := s.Load(filepath.Join(t.TempDir(), "absent.videman"))
	assert.Error(t, err)
}
