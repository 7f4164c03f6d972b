package metadata

import (
	"context"
	"log"

	"github.com/sourcegraph/conc"
)

// Enrichment is the merged provider view of one resolved title.
type Enrichment struct {
	// Genres is the de-duplicated union of both providers' taxonomies;
	// insertion order is first-seen and not significant.
	Genres []string
	// Summary is the preferred synopsis text, "" when no provider had one.
	Summary string
}

// Aggregator queries the independent metadata providers for a resolved id
// and merges their genre taxonomies into one record. Provider failures
// degrade to whatever the other provider supplied; Enrich never fails.
type Aggregator struct {
	tmdb *tmdbClient
	omdb *omdbClient
}

func newAggregator(tmdb *tmdbClient, omdb *omdbClient) *Aggregator {
	return &Aggregator{tmdb: tmdb, omdb: omdb}
}

// Enrich merges TMDB's coded genre list with OMDb's free-text one and picks
// a synopsis. The two queries are independent and side-effect-free, so they
// run concurrently.
func (a *Aggregator) Enrich(ctx context.Context, imdbID string) Enrichment {
	var (
		tmdbGenres []string
		omdbGenres []string
		summary    string
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		show, err := a.tmdb.findByIMDBID(ctx, imdbID)
		if err != nil {
			log.Printf("[aggregator] tmdb genres unavailable for %s: %v", imdbID, err)
			return
		}
		if show != nil {
			tmdbGenres = genreNames(show.GenreIDs)
		}
	})
	wg.Go(func() {
		rec, err := a.omdb.byIMDBID(ctx, imdbID)
		if err != nil {
			log.Printf("[aggregator] omdb record unavailable for %s: %v", imdbID, err)
			return
		}
		omdbGenres = rec.genres()
		summary = rec.plot()
	})
	wg.Wait()

	return Enrichment{
		Genres:  unionGenres(tmdbGenres, omdbGenres),
		Summary: summary,
	}
}

// unionGenres de-duplicates while keeping first-seen order.
func unionGenres(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, g := range list {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
