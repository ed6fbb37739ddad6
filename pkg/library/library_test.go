package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/catalog"
	"github.com/mkrastev/videman/pkg/core/imdb"
	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/probe"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// fakeCatalog serves canned hash attributes and subtitle results.
type fakeCatalog struct {
	attrs       map[string]catalog.Attributes
	subtitles   []catalog.SubtitleResult
	lookupCalls int
}

func (f *fakeCatalog) LookupHashes(hashes []string) (map[string]catalog.Attributes, error) {
	f.lookupCalls++
	out := make(map[string]catalog.Attributes, len(hashes))
	for _, h := range hashes {
		if attrs, ok := f.attrs[h]; ok {
			out[h] = attrs
		} else {
			out[h] = catalog.Attributes{}
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchSubtitles(queries []catalog.SubtitleQuery) ([]catalog.SubtitleResult, error) {
	return f.subtitles, nil
}

func newTestLibrary(t *testing.T, s *settings.Settings, cat Cataloger) *Library {
	t.Helper()
	if s == nil {
		s = settings.Defaults()
	}
	lib, err := New(s, nil, WithCatalog(cat))
	require.NoError(t, err)
	return lib
}

// writeVideo writes a file big enough to carry a fingerprint.
func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := make([]byte, 200000)
	for i := range content {
		content[i] = byte(i*7 + i/251)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestScanFolderAppendsRecords(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "one.mkv")
	writeVideo(t, dir, "two.avi")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644))

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, lib.ScanFolder(dir))
	assert.Len(t, lib.Records, 2)

	require.NoError(t, lib.ScanFolder(dir))
	assert.Len(t, lib.Records, 4, "scanning again appends")
}

func TestFingerprintFillsHashes(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "one.mkv")

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, lib.ScanFolder(dir))
	require.NoError(t, lib.Fingerprint())

	require.Len(t, lib.Records, 1)
	assert.Regexp(t, "^[0-9a-f]{16}$", lib.Records[0].FileHash)
	assert.Equal(t, int64(200000), lib.Records[0].FileSize)
}

func TestIdentifyAppliesCatalogAttributes(t *testing.T) {
	dir := t.TempDir()
	path := writeVideo(t, dir, "drift.mkv")

	lib := newTestLibrary(t, nil, nil)
	require.NoError(t, lib.ScanFolder(dir))
	require.NoError(t, lib.Fingerprint())
	hash := lib.Records[0].FileHash

	cat := &fakeCatalog{attrs: map[string]catalog.Attributes{
		hash: {
			"MovieKind":   "movie",
			"MovieName":   "Drift",
			"MovieYear":   "2004",
			"MovieImdbID": "0403358",
		},
	}}
	lib.catalog = cat

	var snapshots []pipeline.Snapshot
	summary, err := lib.Identify(func(snap pipeline.Snapshot) {
		snapshots = append(snapshots, snap)
	})
	require.NoError(t, err)

	rec := lib.Records[0]
	assert.Equal(t, path, rec.Filename)
	assert.Equal(t, record.KindMovie, rec.Kind)
	assert.Equal(t, "Drift", rec.Title)
	assert.Equal(t, 2004, rec.Year)
	assert.Equal(t, "0403358", rec.CatalogID)

	assert.Equal(t, 1, cat.lookupCalls, "hash lookups are batched into one call")
	assert.Equal(t, Summary{Processed: 1}, summary)
	require.NotEmpty(t, snapshots)
	assert.True(t, snapshots[len(snapshots)-1].Done())
}

func TestIdentifyCountsNoMatchAsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "unknown.mkv")

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, lib.ScanFolder(dir))
	require.NoError(t, lib.Fingerprint())

	summary, err := lib.Identify(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Unchanged: 1}, summary)
	assert.Equal(t, record.KindUnknown, lib.Records[0].Kind)
}

func TestFindSubtitlesSkipsUnidentified(t *testing.T) {
	cat := &fakeCatalog{subtitles: []catalog.SubtitleResult{
		{MatchedBy: "moviehash", Release: "good", URL: "http://example.invalid/s.gz"},
	}}
	lib := newTestLibrary(t, nil, cat)

	identified := record.New("/films/drift.mkv")
	identified.Kind = record.KindMovie
	identified.Title = "Drift"
	lib.Records = []record.Record{identified, record.New("/films/raw.mkv")}

	summary, err := lib.FindSubtitles(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Unchanged: 1}, summary)
	assert.Len(t, lib.Records[0].Subtitles, 1)
	assert.Nil(t, lib.Records[1].Subtitles)
}

func TestReadInfoUsesInjectedProber(t *testing.T) {
	lib := newTestLibrary(t, nil, &fakeCatalog{})
	lib.prober = probe.NewReader(lib.settings, staticProber{}, nil)
	lib.Records = []record.Record{record.New("/films/drift.mkv")}

	summary, err := lib.ReadInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, summary)
	assert.Equal(t, "h264", lib.Records[0].Extra["video_codec"])
}

type staticProber struct{}

func (staticProber) ProbeFile(ctx context.Context, path string) (*probe.Result, error) {
	return &probe.Result{VideoCodec: "h264", Width: 1280, Height: 720}, nil
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "drift.mkv")

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, lib.ScanFolder(dir))
	require.NoError(t, lib.Fingerprint())
	require.NoError(t, lib.Save())

	fresh := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, fresh.Load(dir))
	require.Len(t, fresh.Records, 1)
	assert.Equal(t, lib.Records[0].FileHash, fresh.Records[0].FileHash)
}

func TestRenameMaterializesRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeVideo(t, dir, "drift.mkv")

	s := settings.New(map[string]string{
		"rename_strategy": "symlink",
		"library_folder":  filepath.Join(dir, "library"),
	})
	lib := newTestLibrary(t, s, &fakeCatalog{})

	rec := record.New(path)
	rec.Kind = record.KindMovie
	rec.Title = "Drift"
	rec.Year = 2004
	lib.Records = []record.Record{rec}

	var last [2]int
	summary, err := lib.Rename(func(done, total int) { last = [2]int{done, total} })
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, summary)
	assert.Equal(t, [2]int{1, 1}, last)

	want := filepath.Join(dir, "library", "movies", "Drift (2004)", "Drift.mkv")
	assert.Equal(t, want, lib.Records[0].Filename)
	target, err := os.Readlink(want)
	require.NoError(t, err)
	assert.Equal(t, path, target)
}

// scriptedPrompter always picks the first suggestion.
type scriptedPrompter struct {
	seen []record.Record
}

func (p *scriptedPrompter) ChooseSuggestion(rec record.Record, suggestions []imdb.Suggestion) (imdb.Suggestion, bool) {
	p.seen = append(p.seen, rec)
	if len(suggestions) == 0 {
		return imdb.Suggestion{}, false
	}
	return suggestions[0], true
}

func TestIdentifyManually(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"d": [{"l": "Drift", "id": "tt0403358", "y": 2004, "q": "feature"}]}`))
	}))
	defer srv.Close()

	suggestions := imdb.NewClient(srv.Client(), nil)
	suggestions.SetBaseURL(srv.URL)

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	WithSuggestions(suggestions)(lib)

	already := record.New("/films/known.mkv")
	already.Kind = record.KindMovie
	already.Title = "Known"
	lib.Records = []record.Record{already, record.New("/films/drift.mkv")}

	prompter := &scriptedPrompter{}
	summary, err := lib.IdentifyManually(context.Background(), prompter)
	require.NoError(t, err)

	assert.Equal(t, Summary{Processed: 1, Unchanged: 1}, summary)
	require.Len(t, prompter.seen, 1, "identified records are not offered")

	rec := lib.Records[1]
	assert.Equal(t, record.KindMovie, rec.Kind)
	assert.Equal(t, "Drift", rec.Title)
	assert.Equal(t, 2004, rec.Year)
	assert.Equal(t, "0403358", rec.CatalogID)
}
