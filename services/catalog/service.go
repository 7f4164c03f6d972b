package catalog

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"dramabridge/models"
	"dramabridge/services/metadata"
	"dramabridge/services/scraper"
)

// Fetcher is the scrape-source surface the orchestrator drives.
type Fetcher interface {
	FetchListing(ctx context.Context, q scraper.ListingQuery) ([]models.ScrapedItem, error)
	FetchDetail(ctx context.Context, sourceID int64) (*models.ScrapedDetail, error)
	SecondarySources() []string
	SearchSecondary(ctx context.Context, source, query string, page, pageSize int) ([]models.ScrapedItem, error)
	FetchSecondaryDetail(ctx context.Context, source, path string) (*models.ScrapedDetail, error)
}

// MetadataService resolves and enriches scraped titles.
type MetadataService interface {
	Resolve(ctx context.Context, title, year string) (string, bool)
	ResolveAcrossTitles(ctx context.Context, titles []string, year string) (string, bool)
	IsCorrectShow(ctx context.Context, candidateTitle, imdbID string) bool
	Enrich(ctx context.Context, imdbID string) metadata.Enrichment
	SearchTitleFor(imdbID string) (string, bool)
}

var _ Fetcher = (*scraper.Fetcher)(nil)
var _ MetadataService = (*metadata.Service)(nil)

// Service drives the catalog and meta paths: scrape, resolve, enrich,
// assemble. All failure is absorbed here; callers get empty or absent
// results, never errors.
type Service struct {
	fetcher Fetcher
	meta    MetadataService
}

func NewService(fetcher Fetcher, meta MetadataService) *Service {
	return &Service{fetcher: fetcher, meta: meta}
}

// Request selects one catalog page.
type Request struct {
	Category string
	Search   string
	Genre    string
	Skip     int
	Limit    int
}

// metaCategories are the scrape source's category partitions searched, in
// order, when re-discovering a title from its IMDb id.
var metaCategories = []string{"cdrama", "kdrama"}

// Catalog returns one page of summary records. Items that fail identity
// resolution are excluded rather than surfaced with a degraded identity.
func (s *Service) Catalog(ctx context.Context, req Request) []models.MetaPreview {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	page := req.Skip/req.Limit + 1

	items, err := s.fetcher.FetchListing(ctx, scraper.ListingQuery{
		Category: req.Category,
		Page:     page,
		PageSize: req.Limit,
	})
	if err != nil {
		log.Printf("[catalog] listing failed: %v", err)
		return nil
	}

	var metas []models.MetaPreview
	search := strings.ToLower(req.Search)
	for _, item := range items {
		if search != "" && !strings.Contains(strings.ToLower(item.Title), search) {
			continue
		}
		if preview, ok := s.buildPreview(ctx, item, req.Genre); ok {
			metas = append(metas, preview)
		}
	}
	if len(metas) == 0 {
		metas = s.catalogFromSecondary(ctx, req, page)
	}
	return metas
}

// catalogFromSecondary chains the fallback sources when no primary item
// survived the search and resolution filters, so a catalog request degrades
// to public listing pages rather than an empty row. The first source that
// produces usable records wins.
func (s *Service) catalogFromSecondary(ctx context.Context, req Request, page int) []models.MetaPreview {
	for _, source := range s.fetcher.SecondarySources() {
		items, err := s.fetcher.SearchSecondary(ctx, source, req.Search, page, req.Limit)
		if err != nil {
			log.Printf("[catalog] secondary listing on %s failed: %v", source, err)
			continue
		}

		var metas []models.MetaPreview
		for _, item := range items {
			if preview, ok := s.buildPreview(ctx, item, req.Genre); ok {
				metas = append(metas, preview)
			}
		}
		if len(metas) > 0 {
			return metas
		}
	}
	return nil
}

// buildPreview resolves one scraped item to its canonical identity and
// enriches it; ok is false when the item fails resolution or the genre
// filter.
func (s *Service) buildPreview(ctx context.Context, item models.ScrapedItem, genre string) (models.MetaPreview, bool) {
	imdbID, ok := s.meta.ResolveAcrossTitles(ctx, []string{item.Title}, item.ReleaseYear())
	if !ok {
		return models.MetaPreview{}, false
	}

	enrichment := s.meta.Enrich(ctx, imdbID)
	if genre != "" && !containsGenre(enrichment.Genres, genre) {
		return models.MetaPreview{}, false
	}

	return models.MetaPreview{
		ID:       imdbID,
		SourceID: item.SourceID,
		Type:     "series",
		Name:     item.Title,
		Poster:   item.Thumbnail,
		Genres:   enrichment.Genres,
	}, true
}

// Meta returns the full record for either a canonical IMDb id or a
// scrape-source-native id. nil means absent.
func (s *Service) Meta(ctx context.Context, id string) *models.Meta {
	if strings.HasPrefix(id, "tt") {
		return s.metaByIMDB(ctx, id)
	}

	sourceID, err := parseSourceID(id)
	if err != nil {
		log.Printf("[catalog] unusable meta id %q: %v", id, err)
		return nil
	}
	return s.metaBySourceID(ctx, sourceID, "")
}

// metaByIMDB re-discovers the scrape-source record for a known IMDb id: the
// curated reverse map supplies the search title, the source's category
// partitions are re-searched, and when that fails the secondary sources are
// cascaded with similarity confirmation before accepting a candidate.
func (s *Service) metaByIMDB(ctx context.Context, imdbID string) *models.Meta {
	searchTitle, ok := s.meta.SearchTitleFor(imdbID)
	if !ok {
		// Reverse discovery depends entirely on curated data.
		log.Printf("[catalog] no curated search title for %s", imdbID)
		return nil
	}

	for _, category := range metaCategories {
		items, err := s.fetcher.FetchListing(ctx, scraper.ListingQuery{Category: category, Page: 1, PageSize: 10})
		if err != nil {
			log.Printf("[catalog] %s search failed: %v", category, err)
			continue
		}

		best := s.pickSearchResult(ctx, items, searchTitle, imdbID)
		if best == nil {
			continue
		}
		if best.Source == scraper.SourcePrimary {
			return s.metaBySourceID(ctx, best.SourceID, imdbID)
		}
	}

	return s.metaFromSecondary(ctx, searchTitle, imdbID)
}

// pickSearchResult filters items by the search title, resolves the
// survivors, and prefers the one whose identity matches imdbID, else the
// first resolved result.
func (s *Service) pickSearchResult(ctx context.Context, items []models.ScrapedItem, searchTitle, imdbID string) *models.ScrapedItem {
	search := strings.ToLower(searchTitle)

	var first *models.ScrapedItem
	for i := range items {
		item := &items[i]
		if !strings.Contains(strings.ToLower(item.Title), search) {
			continue
		}
		resolved, ok := s.meta.Resolve(ctx, item.Title, item.ReleaseYear())
		if !ok {
			continue
		}
		if resolved == imdbID {
			return item
		}
		if first == nil {
			first = item
		}
	}
	return first
}

// metaFromSecondary cascades through the secondary scraped sources, accepting
// the first candidate whose title is confirmed against the requested id.
func (s *Service) metaFromSecondary(ctx context.Context, searchTitle, imdbID string) *models.Meta {
	for _, source := range s.fetcher.SecondarySources() {
		candidates, err := s.fetcher.SearchSecondary(ctx, source, searchTitle, 1, 10)
		if err != nil {
			log.Printf("[catalog] secondary search on %s failed: %v", source, err)
			continue
		}
		for _, cand := range candidates {
			if !s.meta.IsCorrectShow(ctx, cand.Title, imdbID) {
				continue
			}
			detail, err := s.fetcher.FetchSecondaryDetail(ctx, source, cand.SecondaryPath)
			if err != nil {
				log.Printf("[catalog] secondary detail on %s failed: %v", source, err)
				continue
			}
			return s.assembleMeta(ctx, imdbID, detail)
		}
	}
	return nil
}

// metaBySourceID fetches the primary source's detail record and assembles
// the full response. knownIMDB carries the id when the entry path already
// resolved it.
func (s *Service) metaBySourceID(ctx context.Context, sourceID int64, knownIMDB string) *models.Meta {
	detail, err := s.fetcher.FetchDetail(ctx, sourceID)
	if err != nil {
		log.Printf("[catalog] detail fetch for %d failed: %v", sourceID, err)
		return nil
	}

	imdbID := knownIMDB
	if imdbID == "" {
		resolved, ok := s.meta.Resolve(ctx, detail.Title, detail.ReleaseYear())
		if !ok {
			log.Printf("[catalog] %q did not resolve, meta absent", detail.Title)
			return nil
		}
		imdbID = resolved
	}

	return s.assembleMeta(ctx, imdbID, detail)
}

// assembleMeta builds the outward record: enriched genres and synopsis with
// graceful fallback to the scraped fields, and the episode list with
// malformed markers discarded.
func (s *Service) assembleMeta(ctx context.Context, imdbID string, detail *models.ScrapedDetail) *models.Meta {
	enrichment := s.meta.Enrich(ctx, imdbID)

	description := enrichment.Summary
	if description == "" {
		description = detail.Description
	}
	genres := enrichment.Genres
	if len(genres) == 0 {
		genres = detail.Genres
	}

	episodes := make([]models.Episode, 0, len(detail.Episodes))
	for _, ep := range detail.Episodes {
		num, ok := ep.Number()
		if !ok {
			continue
		}
		title := ep.Title
		if title == "" {
			title = fmt.Sprintf("Episode %d", num)
		}
		episodes = append(episodes, models.Episode{
			ID:        models.EpisodeID(imdbID, 1, num),
			Season:    1,
			Number:    num,
			Title:     title,
			Thumbnail: ep.Thumbnail,
		})
	}

	return &models.Meta{
		ID:          imdbID,
		Type:        "series",
		Name:        detail.Title,
		Poster:      detail.Thumbnail,
		Description: description,
		ReleaseDate: detail.ReleaseDate,
		Country:     detail.Country,
		Status:      detail.Status,
		IMDBID:      imdbID,
		Genres:      genres,
		Episodes:    episodes,
	}
}

// parseSourceID extracts the numeric source id from a native id, tolerating
// path-shaped ids by taking the last segment.
func parseSourceID(id string) (int64, error) {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return strconv.ParseInt(id, 10, 64)
}

func containsGenre(genres []string, want string) bool {
	for _, g := range genres {
		if g == want {
			return true
		}
	}
	return false
}
