package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/settings"
)

func TestScanFolderFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.mkv", "two.avi", "notes.txt", "three.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "four.mkv"), []byte("x"), 0o644))

	sc := NewScanner(settings.Defaults(), nil)
	records, err := sc.ScanFolder(dir)
	require.NoError(t, err)

	var names []string
	for _, rec := range records {
		names = append(names, filepath.Base(rec.Filename))
	}
	assert.ElementsMatch(t, []string{"one.mkv", "two.avi", "three.mp4", "four.mkv"}, names)
}

func TestScanFolderDerivesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Some.Film.2004.1080p.mkv")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	sc := NewScanner(settings.Defaults(), nil)
	records, err := sc.ScanFolder(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, ".mkv", rec.Extension)
	assert.Equal(t, int64(7), rec.FileSize)
	assert.False(t, rec.AddedAt.IsZero())
	assert.NotEmpty(t, rec.Extra["title_guess"])
}

func TestValidMovieRespectsSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.webm")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	strict := NewScanner(settings.Defaults(), nil)
	assert.False(t, strict.ValidMovie(path))

	loose := NewScanner(settings.New(map[string]string{
		"valid_movie_extensions": ".webm",
	}), nil)
	assert.True(t, loose.ValidMovie(path))
}
