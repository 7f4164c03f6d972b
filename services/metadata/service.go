package metadata

import (
	"context"
	"net/http"
	"time"
)

// Config wires provider credentials into the service. Credentials are
// injected at construction time; nothing here is compiled in.
type Config struct {
	TMDBAPIKey string
	OMDBAPIKey string
	MDLAPIKey  string
	MDLEnabled bool

	// Overrides replaces the default curated table; nil keeps the default.
	Overrides *Overrides
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// Service bundles the identity resolver and the metadata aggregator behind
// one constructor so callers share provider clients, throttles and caches.
type Service struct {
	overrides  *Overrides
	resolver   *Resolver
	aggregator *Aggregator
}

func NewService(cfg Config) *Service {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}

	overrides := cfg.Overrides
	if overrides == nil {
		overrides = DefaultOverrides()
	}

	tmdb := newTMDBClient(cfg.TMDBAPIKey, httpc)
	omdb := newOMDBClient(cfg.OMDBAPIKey, httpc)
	mdl := newMDLClient(cfg.MDLAPIKey, cfg.MDLEnabled, httpc)

	return &Service{
		overrides:  overrides,
		resolver:   newResolver(overrides, tmdb, omdb, mdl),
		aggregator: newAggregator(tmdb, omdb),
	}
}

// Resolve maps a scraped title (optional year) to an IMDb id.
func (s *Service) Resolve(ctx context.Context, title, year string) (string, bool) {
	return s.resolver.Resolve(ctx, title, year)
}

// ResolveAcrossTitles resolves the first spelling that produces an id.
func (s *Service) ResolveAcrossTitles(ctx context.Context, titles []string, year string) (string, bool) {
	return s.resolver.ResolveAcrossTitles(ctx, titles, year)
}

// IsCorrectShow confirms a candidate title against a known id.
func (s *Service) IsCorrectShow(ctx context.Context, candidateTitle, imdbID string) bool {
	return s.resolver.IsCorrectShow(ctx, candidateTitle, imdbID)
}

// Enrich merges provider genres and synopsis for a resolved id.
func (s *Service) Enrich(ctx context.Context, imdbID string) Enrichment {
	return s.aggregator.Enrich(ctx, imdbID)
}

// SearchTitleFor reverse-looks-up the curated scrape-source search title for
// an IMDb id.
func (s *Service) SearchTitleFor(imdbID string) (string, bool) {
	return s.overrides.TitleFor(imdbID)
}
