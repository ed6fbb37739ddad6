// Package settings holds the option table shared by all videman
// components. Defaults are an explicit immutable table; every instance
// starts from a copy of it with overrides layered on top, so no
// component ever mutates another's view.
package settings

import (
	"sort"
	"strconv"
	"strings"
)

// Default option values. Keys are flat snake_case names so that any of
// them can be referenced from a path template.
var defaults = map[string]string{
	"valid_movie_extensions": ".mkv .avi .mp4",

	"catalog_username":  "",
	"catalog_password":  "",
	"catalog_useragent": "OSTestUserAgent",
	"catalog_language":  "en",
	"catalog_timeout":   "20",

	"subtitle_languages": "en",
	"max_subtitles":      "3",
	"subtitle_pattern":   "%{basename}.%{sub_language}.%{sub_index}.srt",

	"library_folder": "library",
	"movie_pattern":  "%{library_folder}/movies/%{title} (%{year})/%{title}%{extension}",
	"episode_pattern": "%{library_folder}/series/%{series_title}/" +
		"S%{season_number}E%{episode_number} - %{episode_title}%{extension}",
	"rename_strategy":           "symlink",
	"fs_forbidden_char_exp":     `[\x00/\\:*?"<>|]`,
	"fs_forbidden_char_replace": "_",

	"store_file":  "%{filename}.videman",
	"store_match": `\.videman$`,

	"identify_concurrency": "1",
	"metadata_concurrency": "8",
}

// Settings is a read-mostly option table. The zero value is not usable;
// construct with Defaults or New.
type Settings struct {
	values map[string]string
}

// Defaults returns a Settings backed by a fresh copy of the default table.
func Defaults() *Settings {
	return New(nil)
}

// New layers the given overrides over the default table.
func New(overrides map[string]string) *Settings {
	values := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		values[k] = v
	}
	for k, v := range overrides {
		values[k] = v
	}
	return &Settings{values: values}
}

// Get returns the value for key, or "" when unset.
func (s *Settings) Get(key string) string {
	return s.values[key]
}

// With returns a copy of the settings with one value replaced. The
// receiver is left unchanged.
func (s *Settings) With(key, value string) *Settings {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	out[key] = value
	return &Settings{values: out}
}

// Int parses the value for key as an integer, falling back to def when
// the value is missing or malformed.
func (s *Settings) Int(key string, def int) int {
	n, err := strconv.Atoi(s.values[key])
	if err != nil {
		return def
	}
	return n
}

// List splits a whitespace- or comma-separated value into its elements.
func (s *Settings) List(key string) []string {
	raw := strings.FieldsFunc(s.values[key], func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	out := raw[:0]
	for _, item := range raw {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Keys returns all option names in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the whole table, used by the path renderer
// to make every setting available for template substitution.
func (s *Settings) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
