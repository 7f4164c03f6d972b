package models

import (
	"fmt"
	"math"
	"strings"
)

// Manifest describes the addon to the host runtime.
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

type ManifestCatalog struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Extra []CatalogExtra `json:"extra,omitempty"`
}

type CatalogExtra struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired,omitempty"`
}

// MetaPreview is the summary record returned in catalog responses. ID is
// always the canonical IMDb identifier; the scrape source's own numeric id
// rides along so the meta path can fetch detail without re-searching.
type MetaPreview struct {
	ID       string   `json:"id"`
	SourceID int64    `json:"sourceId,omitempty"`
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Poster   string   `json:"poster,omitempty"`
	Genres   []string `json:"genres,omitempty"`
}

// Meta is the full record returned by the meta path.
type Meta struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Poster      string    `json:"poster,omitempty"`
	Description string    `json:"description,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	Country     string    `json:"country,omitempty"`
	Status      string    `json:"status,omitempty"`
	IMDBID      string    `json:"imdb_id,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Episodes    []Episode `json:"episodes"`
}

type Episode struct {
	ID        string `json:"id"`
	Season    int    `json:"season"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// EpisodeID builds the canonical composite id imdb:season:number.
func EpisodeID(imdbID string, season, number int) string {
	return fmt.Sprintf("%s:%d:%d", imdbID, season, number)
}

// ScrapedItem is one entry of a scrape-source listing page. Ephemeral; it
// never leaves the process and is never surfaced under its source id.
type ScrapedItem struct {
	SourceID    int64  `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	ReleaseDate string `json:"releaseDate"`
	Country     string `json:"country"`

	// Source names where the item came from: the primary source, a secondary
	// source, or the synthetic fallback dataset.
	Source string `json:"-"`
	// SecondaryPath is the detail-page path for items found on a secondary
	// source, whose listing pages key items by URL rather than numeric id.
	SecondaryPath string `json:"-"`
}

// ReleaseYear extracts the 4-digit year from the item's release date, or ""
// when the date is missing or malformed.
func (s ScrapedItem) ReleaseYear() string {
	d := strings.TrimSpace(s.ReleaseDate)
	if len(d) < 4 {
		return ""
	}
	for _, r := range d[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return d[:4]
}

// ScrapedDetail is the scrape source's full record for one title.
type ScrapedDetail struct {
	SourceID    int64            `json:"id"`
	Title       string           `json:"title"`
	Thumbnail   string           `json:"thumbnail"`
	Description string           `json:"description"`
	ReleaseDate string           `json:"releaseDate"`
	Country     string           `json:"country"`
	Status      string           `json:"status"`
	Genres      []string         `json:"genres"`
	Episodes    []ScrapedEpisode `json:"episodes"`
}

// ScrapedEpisode carries the raw episode marker as decoded JSON. The source
// numbers specials and trailers with strings or fractional values; Number
// reports whether the marker is a well-formed positive integer.
type ScrapedEpisode struct {
	RawNumber any    `json:"number"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// Number returns the episode number when the raw marker is a positive
// integer, and false for anything else ("extra", 3.5, 0, null).
func (e ScrapedEpisode) Number() (int, bool) {
	switch v := e.RawNumber.(type) {
	case float64:
		if v > 0 && v == math.Trunc(v) {
			return int(v), true
		}
	case int:
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

func (s ScrapedDetail) ReleaseYear() string {
	return ScrapedItem{ReleaseDate: s.ReleaseDate}.ReleaseYear()
}
