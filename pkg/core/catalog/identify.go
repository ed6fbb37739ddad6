package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/mkrastev/videman/pkg/core/record"
)

// ErrMalformedTitle means the catalog marked a record as an episode but
// its raw title does not have the `"Series" Episode Title` shape the
// wire format promises.
var ErrMalformedTitle = errors.New(`catalog: episode title is not of the form "Series" Episode`)

var episodeTitleExp = regexp.MustCompile(`^"(.+)"\s+(.+)$`)

// ApplyAttributes maps a raw catalog attribute set onto a copy of the
// record. Attribute sets whose kind is neither "movie" nor "episode"
// (including empty no-match sets) leave the identification fields
// untouched: the record simply stays unidentified. Episode fields are
// set atomically; a malformed episode title yields the unchanged record
// plus ErrMalformedTitle.
func ApplyAttributes(rec record.Record, attrs Attributes) (record.Record, error) {
	out := rec.Clone()
	if attrs == nil {
		return out, nil
	}

	kind := stringAttr(attrs, "MovieKind")
	if kind != string(record.KindMovie) && kind != string(record.KindEpisode) {
		return out, nil
	}

	title := stringAttr(attrs, "MovieName")
	if kind == string(record.KindEpisode) {
		m := episodeTitleExp.FindStringSubmatch(title)
		if m == nil {
			return rec.Clone(), fmt.Errorf("%w: %q", ErrMalformedTitle, title)
		}
		out.SeriesTitle = m[1]
		out.EpisodeTitle = m[2]
		out.SeasonNumber = intAttr(attrs, "SeriesSeason")
		out.EpisodeNumber = intAttr(attrs, "SeriesEpisode")
		out.SeriesCatalogID = stringAttr(attrs, "SeriesIMDBParent")
		if out.SeriesCatalogID == "" {
			// Older replies omit the parent id; the episode's own id is
			// the best series key available.
			out.SeriesCatalogID = stringAttr(attrs, "MovieImdbID")
		}
	}

	out.Kind = record.Kind(kind)
	out.Title = title
	out.Year = intAttr(attrs, "MovieYear")
	out.CatalogID = stringAttr(attrs, "MovieImdbID")
	return out, nil
}
