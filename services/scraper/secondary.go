package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"dramabridge/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"
)

// Secondary source names, tried in this order by the meta cascade.
const (
	SourceDramacool = "dramacool"
	SourceAsiaflix  = "asiaflix"
)

// secondarySource describes one public fallback site and the CSS selectors
// that extract listings and detail pages from its HTML.
type secondarySource struct {
	name    string
	baseURL string

	listPath     func(page int) string
	listItem     string
	listName     func(s *goquery.Selection) string
	listPoster   func(s *goquery.Selection) string
	listLink     func(s *goquery.Selection) string

	detailName     string
	detailPoster   string
	detailPosterAt string
	detailDesc     string
	episodeItem    string
	episodeNumber  func(s *goquery.Selection) string
	episodeTitle   func(s *goquery.Selection) string
}

func secondarySources(dramacoolBase, asiaflixBase string) []secondarySource {
	var sources []secondarySource
	if dramacoolBase != "" {
		sources = append(sources, secondarySource{
			name:    SourceDramacool,
			baseURL: dramacoolBase,
			listPath: func(page int) string {
				return fmt.Sprintf("/most-popular-drama?page=%d", page)
			},
			listItem:   "ul.list-episode-item li a",
			listName:   func(s *goquery.Selection) string { return s.AttrOr("title", "") },
			listPoster: func(s *goquery.Selection) string { return s.Find("img").AttrOr("data-original", "") },
			listLink:   func(s *goquery.Selection) string { return s.AttrOr("href", "") },

			detailName:     ".info h1",
			detailPoster:   ".info .img img",
			detailPosterAt: "src",
			detailDesc:     ".info .desc",
			episodeItem:    ".episode_list li",
			episodeNumber:  func(s *goquery.Selection) string { return s.Find(".num").Text() },
			episodeTitle:   func(s *goquery.Selection) string { return s.Find("a").AttrOr("title", "") },
		})
	}
	if asiaflixBase != "" {
		sources = append(sources, secondarySource{
			name:    SourceAsiaflix,
			baseURL: asiaflixBase,
			listPath: func(page int) string {
				return fmt.Sprintf("/drama-list?page=%d", page)
			},
			listItem:   ".film-poster",
			listName:   func(s *goquery.Selection) string { return s.AttrOr("data-name", "") },
			listPoster: func(s *goquery.Selection) string { return s.Find("img").AttrOr("data-src", "") },
			listLink:   func(s *goquery.Selection) string { return s.AttrOr("href", "") },

			detailName:     ".film-title",
			detailPoster:   ".film-poster img",
			detailPosterAt: "src",
			detailDesc:     ".description",
			episodeItem:    ".episodes-list a",
			episodeNumber:  func(s *goquery.Selection) string { return s.Text() },
			episodeTitle:   func(s *goquery.Selection) string { return s.AttrOr("title", "") },
		})
	}
	return sources
}

// SecondarySources lists the configured fallback sources in cascade order.
func (f *Fetcher) SecondarySources() []string {
	names := make([]string, len(f.secondary))
	for i, s := range f.secondary {
		names[i] = s.name
	}
	return names
}

// SearchSecondary scrapes a secondary source's listing pages and returns
// items whose title contains query (case-insensitive). An empty query returns
// the whole page.
func (f *Fetcher) SearchSecondary(ctx context.Context, source, query string, page, pageSize int) ([]models.ScrapedItem, error) {
	src, err := f.secondaryByName(source)
	if err != nil {
		return nil, err
	}
	return f.scrapeSecondaryListing(ctx, src, query, page, pageSize)
}

// FetchSecondaryDetail scrapes the full detail page for an item previously
// discovered through SearchSecondary.
func (f *Fetcher) FetchSecondaryDetail(ctx context.Context, source, path string) (*models.ScrapedDetail, error) {
	src, err := f.secondaryByName(source)
	if err != nil {
		return nil, err
	}

	doc, err := f.getHTML(ctx, src.baseURL+path)
	if err != nil {
		return nil, err
	}

	detail := &models.ScrapedDetail{
		Title:       strings.TrimSpace(doc.Find(src.detailName).First().Text()),
		Thumbnail:   doc.Find(src.detailPoster).First().AttrOr(src.detailPosterAt, ""),
		Description: strings.TrimSpace(doc.Find(src.detailDesc).First().Text()),
	}
	if detail.Title == "" {
		return nil, &FetchError{URL: src.baseURL + path, Err: fmt.Errorf("detail page has no title")}
	}

	doc.Find(src.episodeItem).Each(func(_ int, s *goquery.Selection) {
		num, ok := parseEpisodeNumber(src.episodeNumber(s))
		if !ok {
			return
		}
		title := strings.TrimSpace(src.episodeTitle(s))
		if title == "" {
			title = fmt.Sprintf("Episode %d", num)
		}
		detail.Episodes = append(detail.Episodes, models.ScrapedEpisode{
			RawNumber: num,
			Title:     title,
		})
	})

	return detail, nil
}

func (f *Fetcher) secondaryByName(name string) (secondarySource, error) {
	for _, s := range f.secondary {
		if s.name == name {
			return s, nil
		}
	}
	return secondarySource{}, fmt.Errorf("unknown secondary source %q", name)
}

func (f *Fetcher) scrapeSecondaryListing(ctx context.Context, src secondarySource, query string, page, pageSize int) ([]models.ScrapedItem, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	doc, err := f.getHTML(ctx, src.baseURL+src.listPath(page))
	if err != nil {
		return nil, err
	}

	var items []models.ScrapedItem
	lowered := strings.ToLower(query)
	doc.Find(src.listItem).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.TrimSpace(src.listName(s))
		if name == "" {
			return true
		}
		if lowered != "" && !strings.Contains(strings.ToLower(name), lowered) {
			return true
		}
		items = append(items, models.ScrapedItem{
			Title:         name,
			Thumbnail:     src.listPoster(s),
			Source:        src.name,
			SecondaryPath: src.listLink(s),
		})
		return len(items) < pageSize
	})

	return items, nil
}

// getHTML fetches a public page through the shared rate limiter with one
// retry; secondary sources are not bot-protected, so the full proxy/session
// machinery stays out of the way.
func (f *Fetcher) getHTML(ctx context.Context, endpoint string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := retry.Do(
		func() error {
			if err := f.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", f.userAgents[0])
			req.Header.Set("Accept", "text/html,application/xhtml+xml")

			resp, err := f.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %s", resp.Status)
			}
			doc, err = goquery.NewDocumentFromReader(resp.Body)
			return err
		},
		retry.Attempts(2),
		retry.Context(ctx),
		retry.Delay(f.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	return doc, nil
}

var digitsRe = regexp.MustCompile(`[0-9]+`)

// parseEpisodeNumber extracts a positive integer episode number from marker
// text like "Episode 12". Markers with fractional parts ("12.5") or no
// digits are rejected.
func parseEpisodeNumber(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, ".") {
		return 0, false
	}
	m := digitsRe.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
