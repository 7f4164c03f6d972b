package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const omdbBaseURL = "http://www.omdbapi.com/"

// omdbNotAvailable is OMDb's sentinel for missing field values.
const omdbNotAvailable = "N/A"

// omdbClient queries OMDb by title or IMDb id.
type omdbClient struct {
	apiKey string
	httpc  *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newOMDBClient(apiKey string, httpc *http.Client) *omdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &omdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

func (c *omdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// omdbRecord is the subset of OMDb's response the addon consumes. Response
// is "False" when the lookup missed.
type omdbRecord struct {
	Response string `json:"Response"`
	IMDBID   string `json:"imdbID"`
	Genre    string `json:"Genre"`
	Plot     string `json:"Plot"`
}

func (c *omdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("omdb request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// seriesIMDBID searches OMDb by series title (optionally with year) and
// returns a well-formed IMDb id, or "" on a miss.
func (c *omdbClient) seriesIMDBID(ctx context.Context, title, year string) (string, error) {
	if !c.isConfigured() {
		return "", errors.New("omdb api key not configured")
	}

	params := url.Values{}
	params.Set("t", title)
	params.Set("type", "series")
	params.Set("apikey", c.apiKey)
	if year != "" {
		params.Set("y", year)
	}

	var rec omdbRecord
	if err := c.doGET(ctx, omdbBaseURL+"?"+params.Encode(), &rec); err != nil {
		return "", err
	}
	if strings.HasPrefix(rec.IMDBID, "tt") {
		return rec.IMDBID, nil
	}
	return "", nil
}

// byIMDBID fetches the OMDb record for an id; used for genres and plot.
func (c *omdbClient) byIMDBID(ctx context.Context, imdbID string) (*omdbRecord, error) {
	if !c.isConfigured() {
		return nil, errors.New("omdb api key not configured")
	}

	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("apikey", c.apiKey)

	var rec omdbRecord
	if err := c.doGET(ctx, omdbBaseURL+"?"+params.Encode(), &rec); err != nil {
		return nil, err
	}
	if rec.Response == "False" {
		return nil, nil
	}
	return &rec, nil
}

// genres splits the record's comma-separated genre list, dropping the N/A
// sentinel.
func (r *omdbRecord) genres() []string {
	if r == nil || r.Genre == "" || r.Genre == omdbNotAvailable {
		return nil
	}
	parts := strings.Split(r.Genre, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// plot returns the synopsis, or "" when absent or the N/A sentinel.
func (r *omdbRecord) plot() string {
	if r == nil || r.Plot == omdbNotAvailable {
		return ""
	}
	return strings.TrimSpace(r.Plot)
}
