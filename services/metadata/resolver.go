package metadata

import (
	"context"
	"log"
	"regexp"
	"strings"

	"dramabridge/utils/similarity"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// fuzzyMatchThreshold is the minimum similarity for accepting the
	// top-ranked TMDB search result without an exact alias match.
	fuzzyMatchThreshold = 0.6
	// confirmThreshold is the minimum similarity against a provider-known
	// alias title for confirming a candidate belongs to a known IMDb id.
	confirmThreshold = 0.8
	// maxAliasDepth bounds the recursive alias expansion through the alias
	// registry. The registry's alternate-title lists are finite, but nothing
	// upstream guarantees they never echo the querying title back.
	maxAliasDepth = 2
)

// Resolver maps a scraped, loosely-formatted title (plus optional year) to a
// canonical IMDb identifier by walking a fixed-priority cascade of
// strategies. The first confident hit wins; the cascade is strictly
// sequential because each strategy only runs after the previous missed.
type Resolver struct {
	overrides *Overrides
	tmdb      *tmdbClient
	omdb      *omdbClient
	mdl       *mdlClient

	// resolved caches successful title→id lookups for the process lifetime;
	// resolution is idempotent for unchanged overrides.
	resolved *gocache.Cache

	strategies []resolveStrategy
}

// resolveStrategy is one step of the cascade. Strategies are evaluated in
// slice order by a single first-success-wins driver.
type resolveStrategy struct {
	name string
	fn   func(ctx context.Context, q resolveQuery) (string, bool)
}

// resolveQuery carries the cascade input plus the recursion state for alias
// expansion.
type resolveQuery struct {
	title   string
	year    string
	depth   int
	visited map[string]struct{}
}

func newResolver(overrides *Overrides, tmdb *tmdbClient, omdb *omdbClient, mdl *mdlClient) *Resolver {
	r := &Resolver{
		overrides: overrides,
		tmdb:      tmdb,
		omdb:      omdb,
		mdl:       mdl,
		resolved:  gocache.New(gocache.NoExpiration, 0),
	}
	r.strategies = []resolveStrategy{
		{name: "manual override", fn: r.fromOverrides},
		{name: "tmdb exact alias", fn: r.fromTMDBExact},
		{name: "tmdb fuzzy", fn: r.fromTMDBFuzzy},
		{name: "omdb", fn: r.fromOMDB},
		{name: "mdl alias expansion", fn: r.fromMDLAliases},
	}
	return r
}

// Resolve maps title (optionally constrained by a 4-digit year) to an IMDb
// id. ok is false when every strategy missed; a miss is not an error.
func (r *Resolver) Resolve(ctx context.Context, title, year string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}

	cacheKey := title + "|" + year
	if cached, found := r.resolved.Get(cacheKey); found {
		return cached.(string), true
	}

	id, ok := r.resolve(ctx, resolveQuery{
		title:   title,
		year:    year,
		visited: map[string]struct{}{similarity.Normalize(title): {}},
	})
	if ok {
		r.resolved.Set(cacheKey, id, gocache.NoExpiration)
	}
	return id, ok
}

// ResolveAcrossTitles applies Resolve to each spelling in order and returns
// the first success. Used when a scraped item is known under multiple
// spellings.
func (r *Resolver) ResolveAcrossTitles(ctx context.Context, titles []string, year string) (string, bool) {
	for _, title := range titles {
		if id, ok := r.Resolve(ctx, title, year); ok {
			return id, ok
		}
	}
	return "", false
}

func (r *Resolver) resolve(ctx context.Context, q resolveQuery) (string, bool) {
	for _, strategy := range r.strategies {
		if id, ok := strategy.fn(ctx, q); ok {
			if q.depth == 0 {
				log.Printf("[resolver] %q resolved to %s via %s", q.title, id, strategy.name)
			}
			return id, true
		}
	}
	return "", false
}

// fromOverrides looks up the literal title string, embedded year included.
func (r *Resolver) fromOverrides(_ context.Context, q resolveQuery) (string, bool) {
	return r.overrides.IMDBFor(q.title)
}

// fromTMDBExact searches TMDB filtered by year and accepts a candidate only
// when one of its alias titles equals the normalized query and its
// cross-reference record yields a canonical id.
func (r *Resolver) fromTMDBExact(ctx context.Context, q resolveQuery) (string, bool) {
	shows, err := r.tmdb.searchTV(ctx, q.title, q.year)
	if err != nil {
		log.Printf("[resolver] tmdb exact search failed for %q: %v", q.title, err)
		return "", false
	}

	want := similarity.Normalize(q.title)
	for _, show := range shows {
		matched := false
		for _, alias := range show.aliasTitles() {
			if similarity.Normalize(alias) == want {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		id, err := r.tmdb.externalIMDBID(ctx, show.ID)
		if err != nil {
			log.Printf("[resolver] tmdb external_ids failed for %d: %v", show.ID, err)
			continue
		}
		if isCanonicalID(id) {
			return id, true
		}
	}
	return "", false
}

// fromTMDBFuzzy re-searches without the year filter, ranks every result by
// similarity to the query and accepts the top candidate above the threshold.
func (r *Resolver) fromTMDBFuzzy(ctx context.Context, q resolveQuery) (string, bool) {
	shows, err := r.tmdb.searchTV(ctx, q.title, "")
	if err != nil {
		log.Printf("[resolver] tmdb fuzzy search failed for %q: %v", q.title, err)
		return "", false
	}
	if len(shows) == 0 {
		return "", false
	}

	bestIdx, bestScore := 0, similarity.Similarity(q.title, shows[0].Name)
	for i, show := range shows[1:] {
		if score := similarity.Similarity(q.title, show.Name); score > bestScore {
			bestIdx, bestScore = i+1, score
		}
	}
	if bestScore <= fuzzyMatchThreshold {
		return "", false
	}

	id, err := r.tmdb.externalIMDBID(ctx, shows[bestIdx].ID)
	if err != nil {
		log.Printf("[resolver] tmdb external_ids failed for %d: %v", shows[bestIdx].ID, err)
		return "", false
	}
	if isCanonicalID(id) {
		return id, true
	}
	return "", false
}

var parentheticalRe = regexp.MustCompile(`\(.*\)`)

// fromOMDB queries OMDb by title+year, by title alone, then with any
// parenthetical year suffix stripped; first well-formed id wins.
func (r *Resolver) fromOMDB(ctx context.Context, q resolveQuery) (string, bool) {
	attempts := []struct{ title, year string }{
		{q.title, q.year},
		{q.title, ""},
	}
	if stripped := strings.TrimSpace(parentheticalRe.ReplaceAllString(q.title, "")); stripped != "" && stripped != q.title {
		attempts = append(attempts, struct{ title, year string }{stripped, ""})
	}

	seen := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		key := a.title + "|" + a.year
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		id, err := r.omdb.seriesIMDBID(ctx, a.title, a.year)
		if err != nil {
			log.Printf("[resolver] omdb lookup failed for %q: %v", a.title, err)
			continue
		}
		if isCanonicalID(id) {
			return id, true
		}
	}
	return "", false
}

// fromMDLAliases expands the query through the alias registry and recursively
// resolves each alternate spelling, then the recorded original title.
// Recursion is bounded by maxAliasDepth and a visited-title set.
func (r *Resolver) fromMDLAliases(ctx context.Context, q resolveQuery) (string, bool) {
	if !r.mdl.isConfigured() || q.depth >= maxAliasDepth {
		return "", false
	}

	mdlID, err := r.mdl.searchFirstID(ctx, q.title)
	if err != nil {
		log.Printf("[resolver] mdl search failed for %q: %v", q.title, err)
		return "", false
	}
	if mdlID == 0 {
		return "", false
	}

	details, err := r.mdl.titleDetails(ctx, mdlID)
	if err != nil {
		log.Printf("[resolver] mdl details failed for %d: %v", mdlID, err)
		return "", false
	}

	candidates := append([]string{}, details.AltTitles...)
	if details.OriginalTitle != "" {
		candidates = append(candidates, details.OriginalTitle)
	}

	for _, alt := range candidates {
		key := similarity.Normalize(alt)
		if key == "" {
			continue
		}
		if _, seen := q.visited[key]; seen {
			continue
		}
		q.visited[key] = struct{}{}
		if id, ok := r.resolve(ctx, resolveQuery{
			title:   alt,
			year:    q.year,
			depth:   q.depth + 1,
			visited: q.visited,
		}); ok {
			return id, true
		}
	}
	return "", false
}

// IsCorrectShow confirms that a candidate scraped title plausibly matches an
// already-known IMDb id: best similarity against any of the id's
// provider-known alias titles must exceed the confirmation threshold.
func (r *Resolver) IsCorrectShow(ctx context.Context, candidateTitle, imdbID string) bool {
	show, err := r.tmdb.findByIMDBID(ctx, imdbID)
	if err != nil {
		log.Printf("[resolver] tmdb find failed for %s: %v", imdbID, err)
		return false
	}
	if show == nil {
		return false
	}

	_, score, ok := similarity.BestMatch(candidateTitle, show.aliasTitles())
	return ok && score > confirmThreshold
}

// isCanonicalID reports whether s carries the canonical identifier prefix.
func isCanonicalID(s string) bool {
	return strings.HasPrefix(s, "tt")
}
