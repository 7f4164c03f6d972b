package scraper

import "dramabridge/models"

// placeholderListing is the last line of the fallback cascade: a static
// dataset served when the primary source and every secondary source failed.
// The titles mirror curated override entries so downstream identity
// resolution still works offline; Source marks the records as synthetic.
func placeholderListing() []models.ScrapedItem {
	entries := []models.ScrapedItem{
		{
			SourceID:    -1,
			Title:       "Hidden Love (2023)",
			ReleaseDate: "2023-06-20",
			Country:     "China",
		},
		{
			SourceID:    -2,
			Title:       "Moving (2023)",
			ReleaseDate: "2023-08-09",
			Country:     "South Korea",
		},
		{
			SourceID:    -3,
			Title:       "Forever Love (2023)",
			ReleaseDate: "2023-09-13",
			Country:     "China",
		},
		{
			SourceID:    -4,
			Title:       "Good Boy (2025)",
			ReleaseDate: "2025-05-31",
			Country:     "South Korea",
		},
	}
	for i := range entries {
		entries[i].Source = SourcePlaceholder
	}
	return entries
}
