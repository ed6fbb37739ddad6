package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrastev/videman/pkg/core/catalog"
	"github.com/mkrastev/videman/pkg/core/record"
)

// The full scan, fingerprint and identify path over a real file and a
// stubbed catalog.
func TestScanFingerprintIdentify(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "sample.mkv")

	lib := newTestLibrary(t, nil, &fakeCatalog{})
	require.NoError(t, lib.ScanFolder(dir))
	require.NoError(t, lib.Fingerprint())
	require.Len(t, lib.Records, 1)

	hash := lib.Records[0].FileHash
	assert.Regexp(t, "^[0-9a-f]{16}$", hash)

	// Fingerprinting again is a no-op and yields the same value.
	require.NoError(t, lib.Fingerprint())
	assert.Equal(t, hash, lib.Records[0].FileHash)

	lib.catalog = &fakeCatalog{attrs: map[string]catalog.Attributes{
		hash: {
			"MovieKind":   "movie",
			"MovieName":   "X",
			"MovieYear":   "2004",
			"MovieImdbID": "42",
		},
	}}

	summary, err := lib.Identify(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, summary)

	rec := lib.Records[0]
	assert.Equal(t, record.KindMovie, rec.Kind)
	assert.Equal(t, "X", rec.Title)
	assert.Equal(t, 2004, rec.Year)
	assert.Equal(t, "42", rec.CatalogID)
}
