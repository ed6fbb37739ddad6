// Package imdb enriches identified records with secondary metadata
// from the IMDB suggestion endpoint.
package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL is the suggestion endpoint root. The endpoint is
// undocumented and may change without notice.
const DefaultBaseURL = "https://v3.sg.media-imdb.com"

// Suggestion is one title candidate from a suggestion query.
type Suggestion struct {
	ID       string // "tt"-prefixed
	Title    string
	Year     int
	Kind     string // "feature", "TV series", ...
	Starring string
	Rank     int
}

type suggestionResponse struct {
	Data []suggestionItem `json:"d"`
}

type suggestionItem struct {
	Label      string `json:"l"`
	ID         string `json:"id"`
	Starring   string `json:"s,omitempty"`
	Year       int    `json:"y,omitempty"`
	YearRange  string `json:"yr,omitempty"`
	ResultType string `json:"q,omitempty"`
	Rank       int    `json:"rank,omitempty"`
}

// year falls back to the start of the "YYYY-YYYY" range when the plain
// field is absent.
func (item suggestionItem) year() int {
	if item.Year != 0 {
		return item.Year
	}
	if item.YearRange != "" {
		start, _, _ := strings.Cut(item.YearRange, "-")
		if y, err := strconv.Atoi(start); err == nil {
			return y
		}
	}
	return 0
}

// Client talks to the suggestion endpoint. Lookup failures degrade to
// empty result sets, the endpoint is too unstable to be load-bearing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// NewClient creates a suggestion client. A nil httpClient gets a
// default one with a short timeout.
func NewClient(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = log.New()
	}
	return &Client{httpClient: httpClient, baseURL: DefaultBaseURL, logger: logger}
}

// SetBaseURL points the client at a different endpoint root, used by
// tests to target a local server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimSuffix(base, "/")
}

// Search queries title suggestions for a free-text query. Transport and
// decoding failures are logged and answered with an empty result set.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	apiURL := fmt.Sprintf("%s/suggestion/titles/%s/%s.json",
		c.baseURL, string(query[0]), url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("imdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf("imdb: suggestion request failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnf("imdb: suggestion request answered %s", resp.Status)
		return nil, nil
	}

	var decoded suggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warnf("imdb: undecodable suggestion response: %v", err)
		return nil, nil
	}

	out := make([]Suggestion, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		if !strings.HasPrefix(item.ID, "tt") || item.Label == "" {
			continue
		}
		out = append(out, Suggestion{
			ID:       item.ID,
			Title:    item.Label,
			Year:     item.year(),
			Kind:     item.ResultType,
			Starring: item.Starring,
			Rank:     item.Rank,
		})
	}
	return out, nil
}
