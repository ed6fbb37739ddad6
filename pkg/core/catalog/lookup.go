package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Attributes is the raw attribute set the catalog returns for one hash.
// A non-nil empty set means "looked up, no match"; a missing map entry
// means the hash was never looked up.
type Attributes map[string]interface{}

// LookupHash identifies a single fingerprint.
func (c *Client) LookupHash(hash string) (Attributes, error) {
	result, err := c.LookupHashes([]string{hash})
	if err != nil {
		return nil, err
	}
	return result[hash], nil
}

// LookupHashes identifies an arbitrary number of fingerprints, slicing
// them into server-sized groups and merging the per-group replies. The
// result holds exactly one entry per input hash.
func (c *Client) LookupHashes(hashes []string) (map[string]Attributes, error) {
	merged := make(map[string]Attributes, len(hashes))
	for start := 0; start < len(hashes); start += hashBatchSize {
		end := start + hashBatchSize
		if end > len(hashes) {
			end = len(hashes)
		}
		group, err := c.lookupHashGroup(hashes[start:end])
		if err != nil {
			return nil, err
		}
		for hash, attrs := range group {
			merged[hash] = attrs
		}
	}
	return merged, nil
}

func (c *Client) lookupHashGroup(hashes []string) (map[string]Attributes, error) {
	data, err := c.Call("CheckMovieHash", hashes)
	if err != nil {
		return nil, err
	}

	result := make(map[string]Attributes, len(hashes))
	raw, _ := data["data"].(map[string]interface{})
	for hash, value := range raw {
		// The wire format sends an empty array instead of an empty
		// struct when a hash has no match.
		if attrs, ok := value.(map[string]interface{}); ok {
			result[hash] = Attributes(attrs)
		} else {
			result[hash] = Attributes{}
		}
	}
	// Hashes the server left out of the reply were still looked up.
	for _, hash := range hashes {
		if _, ok := result[hash]; !ok {
			result[hash] = Attributes{}
		}
	}
	return result, nil
}

// SubtitleQuery is one subtitle search criterion set. Zero-valued
// fields are omitted from the wire query rather than sent as null.
type SubtitleQuery struct {
	Hash      string
	Size      int64
	CatalogID string
	Title     string
	Season    int
	Episode   int
	Languages []string // 3-letter codes
}

func (q SubtitleQuery) params() map[string]interface{} {
	params := make(map[string]interface{})
	if q.Hash != "" {
		params["moviehash"] = q.Hash
	}
	if q.Size > 0 {
		params["moviebytesize"] = strconv.FormatInt(q.Size, 10)
	}
	if q.CatalogID != "" {
		params["imdbid"] = q.CatalogID
	}
	if q.Title != "" {
		params["query"] = q.Title
	}
	if q.Season > 0 {
		params["season"] = strconv.Itoa(q.Season)
	}
	if q.Episode > 0 {
		params["episode"] = strconv.Itoa(q.Episode)
	}
	if len(q.Languages) > 0 {
		params["sublanguageid"] = strings.Join(q.Languages, ",")
	}
	return params
}

// SubtitleResult is one candidate from a subtitle search.
type SubtitleResult struct {
	Language      string // 2-letter code
	Release       string
	FrameRate     float64
	Rating        float64
	DownloadCount int
	Encoding      string
	URL           string
	MatchedBy     string // "moviehash", "imdbid", "tag" or "fulltext"
}

// SearchSubtitles issues one batched search over all given queries.
func (c *Client) SearchSubtitles(queries []SubtitleQuery) ([]SubtitleResult, error) {
	wireQueries := make([]interface{}, len(queries))
	for i, q := range queries {
		wireQueries[i] = q.params()
	}

	data, err := c.Call("SearchSubtitles", wireQueries)
	if err != nil {
		return nil, err
	}

	// A search with no matches answers data:false instead of an array.
	raw, _ := data["data"].([]interface{})
	results := make([]SubtitleResult, 0, len(raw))
	for _, item := range raw {
		attrs, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("catalog: SearchSubtitles: unexpected entry type %T: %w",
				item, ErrNoStatus)
		}
		results = append(results, SubtitleResult{
			Language:      stringAttr(attrs, "ISO639"),
			Release:       stringAttr(attrs, "MovieReleaseName"),
			FrameRate:     floatAttr(attrs, "MovieFPS"),
			Rating:        floatAttr(attrs, "SubRating"),
			DownloadCount: intAttr(attrs, "SubDownloadsCnt"),
			Encoding:      stringAttr(attrs, "SubEncoding"),
			URL:           stringAttr(attrs, "SubDownloadLink"),
			MatchedBy:     stringAttr(attrs, "MatchedBy"),
		})
	}
	return results, nil
}

// The wire protocol sends most numerics as strings; these helpers
// tolerate both.

func stringAttr(attrs map[string]interface{}, key string) string {
	s, _ := attrs[key].(string)
	return s
}

func intAttr(attrs map[string]interface{}, key string) int {
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func floatAttr(attrs map[string]interface{}, key string) float64 {
	switch v := attrs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}
