package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"dramabridge/models"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	// SourcePrimary is the bot-protected primary scrape source.
	SourcePrimary = "kisskh"
	// SourcePlaceholder labels synthetic fallback data returned when every
	// live source failed.
	SourcePlaceholder = "placeholder"

	defaultRetryAttempts = 3
	defaultRetryDelay    = 300 * time.Millisecond
)

// FetchError wraps a failure to obtain a usable response from a scrape
// source after the retry budget was exhausted.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ListingQuery selects one page of the primary source's drama listing.
type ListingQuery struct {
	Category string // "kdrama" or "cdrama"
	Page     int
	PageSize int
}

// Config configures a Fetcher.
type Config struct {
	BaseURL          string
	DramacoolBaseURL string
	AsiaflixBaseURL  string
	SessionTTL       time.Duration
	MinInterval      time.Duration
	Timeout          time.Duration
	UserAgents       []string
	Proxies          []string

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// Fetcher retrieves listings and detail records from the primary scrape
// source, riding out its bot mitigation: a time-bounded cookie session, a
// global minimum inter-request interval, user-agent rotation, optional proxy
// routing on retries, and a secondary-source/placeholder fallback so a
// listing request never comes back empty-handed.
type Fetcher struct {
	baseURL    string
	httpc      *http.Client
	limiter    *rate.Limiter
	userAgents []string
	proxies    []string

	sessionTTL time.Duration
	sessionMu  sync.Mutex
	session    *session

	secondary []secondarySource

	retryAttempts uint
	retryDelay    time.Duration
}

// New constructs a Fetcher from config, filling unset values with safe
// defaults.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 750 * time.Millisecond
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"}
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		baseURL:       cfg.BaseURL,
		httpc:         httpc,
		limiter:       rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		userAgents:    cfg.UserAgents,
		proxies:       cfg.Proxies,
		sessionTTL:    cfg.SessionTTL,
		secondary:     secondarySources(cfg.DramacoolBaseURL, cfg.AsiaflixBaseURL),
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
}

type listingResponse struct {
	Data []models.ScrapedItem `json:"data"`
}

// FetchListing returns one page of ScrapedItems. When the primary source is
// blocking it degrades to secondary public listing pages, and as a last
// resort to the static placeholder dataset, so the result is always a
// well-formed, non-empty sequence.
func (f *Fetcher) FetchListing(ctx context.Context, q ListingQuery) ([]models.ScrapedItem, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 50
	}

	country := 1
	if q.Category == "kdrama" {
		country = 2
	}
	endpoint := fmt.Sprintf("%s/api/DramaList/List?page=%d&pageSize=%d&type=1&sub=0&country=%d&status=0&order=1",
		f.baseURL, q.Page, q.PageSize, country)

	var payload listingResponse
	if err := f.getJSON(ctx, endpoint, &payload); err != nil {
		log.Printf("[scraper] primary listing failed, trying secondary sources: %v", err)
		return f.fallbackListing(ctx, q), nil
	}

	items := payload.Data
	for i := range items {
		items[i].Source = SourcePrimary
	}
	return items, nil
}

// FetchDetail returns the primary source's full record for one title. Unlike
// listings there is no synthetic fallback: a blocked detail fetch surfaces as
// a FetchError and the caller reports the item absent.
func (f *Fetcher) FetchDetail(ctx context.Context, sourceID int64) (*models.ScrapedDetail, error) {
	endpoint := fmt.Sprintf("%s/api/DramaList/Drama/%d?isq=false", f.baseURL, sourceID)

	var detail models.ScrapedDetail
	if err := f.getJSON(ctx, endpoint, &detail); err != nil {
		return nil, err
	}
	if detail.Title == "" {
		return nil, &FetchError{URL: endpoint, Err: fmt.Errorf("detail record has no title")}
	}
	if detail.SourceID == 0 {
		detail.SourceID = sourceID
	}
	return &detail, nil
}

// getJSON fetches endpoint into v with the full resilience stack: session
// cookie, rate limiting, UA rotation per attempt, proxy routing from the
// second attempt on, and exponentially-jittered backoff between attempts.
// The session is invalidated after the final attempt fails.
func (f *Fetcher) getJSON(ctx context.Context, endpoint string, v any) error {
	cookie := f.ensureSession(ctx)

	attempt := 0
	err := retry.Do(
		func() error {
			if err := f.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			client := f.httpc
			if attempt >= 1 && len(f.proxies) > 0 {
				proxied, err := f.proxiedClient()
				if err != nil {
					log.Printf("[scraper] proxy setup failed, continuing direct: %v", err)
				} else {
					client = proxied
				}
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", f.userAgents[attempt%len(f.userAgents)])
			req.Header.Set("Accept", "application/json, text/plain, */*")
			req.Header.Set("Referer", f.baseURL+"/")
			if cookie != "" {
				req.Header.Set("Cookie", cookie)
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, resp.Body)
				return fmt.Errorf("unexpected status %s", resp.Status)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(body, v); err != nil {
				// HTML challenge pages come back with 200 and a non-JSON body.
				return fmt.Errorf("non-JSON body (likely block page): %w", err)
			}
			return nil
		},
		retry.Attempts(f.retryAttempts),
		retry.Context(ctx),
		retry.Delay(f.retryDelay),
		retry.MaxJitter(f.retryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			attempt = int(n) + 1
			log.Printf("[scraper] attempt %d/%d failed for %s: %v", n+1, f.retryAttempts, endpoint, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		f.invalidateSession()
		return &FetchError{URL: endpoint, Err: err}
	}
	return nil
}

// proxiedClient builds a client routed through a randomly chosen proxy from
// the pool. The URL scheme decides the adapter: http/https use a CONNECT
// proxy, socks5 a SOCKS dialer.
func (f *Fetcher) proxiedClient() (*http.Client, error) {
	raw := f.proxies[rand.Intn(len(f.proxies))]
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", raw, err)
	}

	var transport *http.Transport
	switch u.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(u)}
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pw, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pw}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy %q: %w", raw, err)
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	return &http.Client{Transport: transport, Timeout: f.httpc.Timeout}, nil
}

// fallbackListing tries the secondary public sources, then the placeholder
// dataset. Never empty.
func (f *Fetcher) fallbackListing(ctx context.Context, q ListingQuery) []models.ScrapedItem {
	for _, src := range f.secondary {
		items, err := f.scrapeSecondaryListing(ctx, src, "", q.Page, q.PageSize)
		if err != nil {
			log.Printf("[scraper] secondary source %s failed: %v", src.name, err)
			continue
		}
		if len(items) > 0 {
			return items
		}
	}
	log.Printf("[scraper] all live sources exhausted, serving placeholder dataset")
	return placeholderListing()
}
