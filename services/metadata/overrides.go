package metadata

// Overrides is the hand-curated bijection between display titles (year
// included) and IMDb identifiers. It is consulted before any network lookup,
// and in reverse to re-discover a scrape-source title when only the IMDb id
// is known. Forward and reverse maps must stay mutually consistent; the
// round-trip is asserted by tests rather than checked at runtime.
type Overrides struct {
	imdbByTitle map[string]string
	titleByIMDB map[string]string
}

// NewOverrides builds an override table from a title→imdb map; the reverse
// map is derived so the two cannot drift.
func NewOverrides(imdbByTitle map[string]string) *Overrides {
	reverse := make(map[string]string, len(imdbByTitle))
	for title, id := range imdbByTitle {
		reverse[id] = title
	}
	return &Overrides{imdbByTitle: imdbByTitle, titleByIMDB: reverse}
}

// DefaultOverrides returns the curated mappings for titles the providers
// resolve badly or not at all.
func DefaultOverrides() *Overrides {
	return NewOverrides(map[string]string{
		"Hidden Love (2023)":  "tt28076458",
		"Forever Love (2023)": "tt13598988",
		"Good Boy (2025)":     "tt32361930",
		"Moving (2023)":       "tt24640580",
	})
}

// IMDBFor returns the canonical identifier for a literal display title.
func (o *Overrides) IMDBFor(title string) (string, bool) {
	id, ok := o.imdbByTitle[title]
	return id, ok
}

// TitleFor returns the scrape-source search title for an IMDb id.
func (o *Overrides) TitleFor(imdbID string) (string, bool) {
	title, ok := o.titleByIMDB[imdbID]
	return title, ok
}

// Pairs returns every (title, imdbID) entry; used by tests to assert
// round-trip consistency.
func (o *Overrides) Pairs() map[string]string {
	out := make(map[string]string, len(o.imdbByTitle))
	for k, v := range o.imdbByTitle {
		out[k] = v
	}
	return out
}
