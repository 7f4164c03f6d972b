package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const mdlBaseURL = "https://api.mydramalist.com/v1"

// mdlClient queries the MyDramaList alias registry. The whole provider is
// feature-disabled when no real credential is configured.
type mdlClient struct {
	apiKey  string
	enabled bool
	httpc   *http.Client
}

func newMDLClient(apiKey string, enabled bool, httpc *http.Client) *mdlClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &mdlClient{apiKey: strings.TrimSpace(apiKey), enabled: enabled, httpc: httpc}
}

func (c *mdlClient) isConfigured() bool {
	return c != nil && c.enabled && c.apiKey != ""
}

type mdlSearchResponse struct {
	Data []struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

// mdlTitle is the registry's record for one title, including every alternate
// spelling it is known under.
type mdlTitle struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	AltTitles     []string `json:"alt_titles"`
}

// searchFirstID returns the id of the registry's top search hit, or 0 on a
// miss.
func (c *mdlClient) searchFirstID(ctx context.Context, query string) (int64, error) {
	if !c.isConfigured() {
		return 0, errors.New("mdl api key not configured")
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mdlBaseURL+"/search/titles", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("mdl-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("mdl search failed: %s", resp.Status)
	}

	var payload mdlSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, nil
	}
	return payload.Data[0].ID, nil
}

// titleDetails fetches the alternate-title record for a registry id.
func (c *mdlClient) titleDetails(ctx context.Context, id int64) (*mdlTitle, error) {
	if !c.isConfigured() {
		return nil, errors.New("mdl api key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/titles/%d", mdlBaseURL, id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("mdl-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mdl title %d failed: %s", id, resp.Status)
	}

	var title mdlTitle
	if err := json.NewDecoder(resp.Body).Decode(&title); err != nil {
		return nil, err
	}
	return &title, nil
}
