package record

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Kind classifies an identified record.
type Kind string

const (
	// KindMovie marks a standalone feature.
	KindMovie Kind = "movie"
	// KindEpisode marks a single episode of a series.
	KindEpisode Kind = "episode"
	// KindUnknown is the zero value before identification.
	KindUnknown Kind = ""
)

// Subtitle describes one subtitle candidate attached to a record.
type Subtitle struct {
	Language      string  `yaml:"language"`
	Release       string  `yaml:"release,omitempty"`
	FrameRate     float64 `yaml:"frame_rate,omitempty"`
	Rating        float64 `yaml:"rating,omitempty"`
	DownloadCount int     `yaml:"download_count,omitempty"`
	Encoding      string  `yaml:"encoding,omitempty"`
	URL           string  `yaml:"url,omitempty"`
	LocalFilename string  `yaml:"local_filename,omitempty"`
}

// Record is one tracked media file and everything learned about it.
// Records are values: pipeline stages never modify a record they were
// given, they return a changed copy (see Clone).
type Record struct {
	Filename  string    `yaml:"filename"`
	FileHash  string    `yaml:"file_hash,omitempty"`
	FileSize  int64     `yaml:"file_size,omitempty"`
	AddedAt   time.Time `yaml:"added_at,omitempty"`
	Extension string    `yaml:"extension,omitempty"`

	Kind      Kind   `yaml:"kind,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Year      int    `yaml:"year,omitempty"`
	CatalogID string `yaml:"catalog_id,omitempty"`

	// Episode-only fields. Either all five are set or none of them are:
	// identification is atomic.
	SeriesTitle     string `yaml:"series_title,omitempty"`
	EpisodeTitle    string `yaml:"episode_title,omitempty"`
	SeasonNumber    int    `yaml:"season_number,omitempty"`
	EpisodeNumber   int    `yaml:"episode_number,omitempty"`
	SeriesCatalogID string `yaml:"series_catalog_id,omitempty"`

	Subtitles []Subtitle `yaml:"subtitles,omitempty"`

	// Extra holds loosely typed attributes (probe results, secondary
	// metadata) so that any of them can appear in a path template.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// New creates a record for a file that was just discovered.
func New(filename string) Record {
	return Record{
		Filename:  filename,
		Extension: filepath.Ext(filename),
		AddedAt:   time.Now(),
	}
}

// Clone returns a deep copy of the record. Mutating the copy's subtitle
// list or extra map leaves the original untouched.
func (r Record) Clone() Record {
	out := r
	if r.Subtitles != nil {
		out.Subtitles = make([]Subtitle, len(r.Subtitles))
		copy(out.Subtitles, r.Subtitles)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// WithExtra returns a copy of the record with one extra attribute set.
func (r Record) WithExtra(key, value string) Record {
	out := r.Clone()
	if out.Extra == nil {
		out.Extra = make(map[string]string, 1)
	}
	out.Extra[key] = value
	return out
}

// Identified reports whether the record has been matched to a catalog entry.
func (r Record) Identified() bool {
	return r.Kind == KindMovie || r.Kind == KindEpisode
}

// Basename is the record's path without its extension, used as the stem
// for subtitle filenames.
func (r Record) Basename() string {
	return strings.TrimSuffix(r.Filename, r.Extension)
}

// TemplateValues flattens the record into the substitution map consumed
// by path templates. Extra attributes are included as-is; fixed fields
// win on collision.
func (r Record) TemplateValues() map[string]string {
	values := make(map[string]string, len(r.Extra)+12)
	for k, v := range r.Extra {
		values[k] = v
	}
	values["filename"] = r.Filename
	values["basename"] = r.Basename()
	values["extension"] = r.Extension
	values["file_hash"] = r.FileHash
	values["title"] = r.Title
	values["kind"] = string(r.Kind)
	if r.Year != 0 {
		values["year"] = strconv.Itoa(r.Year)
	}
	values["catalog_id"] = r.CatalogID
	if r.Kind == KindEpisode {
		values["series_title"] = r.SeriesTitle
		values["episode_title"] = r.EpisodeTitle
		values["season_number"] = fmt.Sprintf("%02d", r.SeasonNumber)
		values["episode_number"] = fmt.Sprintf("%02d", r.EpisodeNumber)
		values["series_catalog_id"] = r.SeriesCatalogID
	}
	return values
}

// String renders a one-line human description of the record.
func (r Record) String() string {
	if !r.Identified() {
		return r.Filename
	}
	if r.Kind == KindEpisode {
		return fmt.Sprintf("%s S%02dE%02d %s (%d)",
			r.SeriesTitle, r.SeasonNumber, r.EpisodeNumber, r.EpisodeTitle, r.Year)
	}
	return fmt.Sprintf("%s (%d)", r.Title, r.Year)
}
