package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// tmdbClient talks to TMDB: series search, external-id cross-reference and
// reverse lookup by IMDb id.
type tmdbClient struct {
	apiKey string
	httpc  *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// tmdbShow is one TV result from search or find responses.
type tmdbShow struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	OriginalName  string   `json:"original_name"`
	FirstAirDate  string   `json:"first_air_date"`
	OriginCountry []string `json:"origin_country"`
	GenreIDs      []int    `json:"genre_ids"`
}

// aliasTitles collects every title the show is known under in the payload.
func (s tmdbShow) aliasTitles() []string {
	var titles []string
	for _, t := range []string{s.Name, s.OriginalName} {
		if strings.TrimSpace(t) != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

type tmdbSearchResponse struct {
	Results []tmdbShow `json:"results"`
}

type tmdbFindResponse struct {
	TVResults []tmdbShow `json:"tv_results"`
}

type tmdbExternalIDsResponse struct {
	IMDBID string `json:"imdb_id"`
}

// doGET performs an HTTP GET with rate limiting and retry with exponential backoff.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	var lastErr error
	backoff := 300 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
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
			lastErr = err
			log.Printf("[tmdb] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Printf("[tmdb] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			lastErr = fmt.Errorf("tmdb request failed: %s", resp.Status)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("tmdb request failed: %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return err
		}
		return nil
	}

	return lastErr
}

// searchTV queries the series search endpoint, optionally filtered by first
// air date year.
func (c *tmdbClient) searchTV(ctx context.Context, query, year string) ([]tmdbShow, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	if year != "" {
		params.Set("first_air_date_year", year)
	}
	endpoint := fmt.Sprintf("%s/search/tv?%s", tmdbBaseURL, params.Encode())

	var payload tmdbSearchResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// externalIMDBID returns the IMDb id cross-referenced for a TMDB series, or
// "" when TMDB has none on file.
func (c *tmdbClient) externalIMDBID(ctx context.Context, tmdbID int64) (string, error) {
	if !c.isConfigured() {
		return "", errors.New("tmdb api key not configured")
	}

	endpoint := fmt.Sprintf("%s/tv/%d/external_ids?api_key=%s", tmdbBaseURL, tmdbID, c.apiKey)

	var payload tmdbExternalIDsResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.IMDBID), nil
}

// findByIMDBID reverse-looks-up a series by IMDb id. Returns nil when TMDB
// does not know the id.
func (c *tmdbClient) findByIMDBID(ctx context.Context, imdbID string) (*tmdbShow, error) {
	if !c.isConfigured() {
		return nil, errors.New("tmdb api key not configured")
	}
	if imdbID == "" {
		return nil, errors.New("imdb id required")
	}
	if !strings.HasPrefix(imdbID, "tt") {
		imdbID = "tt" + imdbID
	}

	endpoint := fmt.Sprintf("%s/find/%s?api_key=%s&external_source=imdb_id", tmdbBaseURL, imdbID, c.apiKey)

	var payload tmdbFindResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.TVResults) == 0 {
		return nil, nil
	}
	return &payload.TVResults[0], nil
}
