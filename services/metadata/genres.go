package metadata

// tmdbGenreNames maps TMDB genre codes to display names. Unknown codes are
// dropped silently during enrichment.
var tmdbGenreNames = map[int]string{
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	9648:  "Mystery",
	37:    "Western",
	36:    "Historical",
	53:    "Thriller",
	14:    "Fantasy",
	27:    "Horror",
	28:    "Action",
	12:    "Adventure",
	878:   "Sci-Fi",
	10402: "Music",
	10749: "Romance",
	10751: "Family",
	10752: "War",
	10753: "Crime",
	10755: "Medical",
	10756: "Supernatural",
	10757: "Sports",
	10758: "Business",
	10759: "Action",
	10760: "Political",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
	10769: "Foreign",
	10770: "TV Movie",
}

// genreNames maps a code list to display names, dropping unknown codes.
func genreNames(codes []int) []string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		if name, ok := tmdbGenreNames[code]; ok {
			names = append(names, name)
		}
	}
	return names
}
