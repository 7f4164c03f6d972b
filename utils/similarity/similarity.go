package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Similarity calculates the similarity between two titles using bigram
// overlap (Sørensen–Dice coefficient). Returns a value between 0.0
// (completely different) and 1.0 (identical).
//
// Both inputs are normalized first, so "Hidden Love (2023)" and
// "hidden-love 2023" compare as equal.
func Similarity(s1, s2 string) float64 {
	s1 = Normalize(s1)
	s2 = Normalize(s2)

	if s1 == s2 {
		if s1 == "" {
			return 0.0
		}
		return 1.0
	}
	if len(s1) < 2 || len(s2) < 2 {
		return 0.0
	}

	b1, n1 := bigrams(s1)
	b2, n2 := bigrams(s2)
	if n1 == 0 || n2 == 0 {
		return 0.0
	}

	var overlap int
	for g, n := range b1 {
		if m, ok := b2[g]; ok {
			overlap += min(n, m)
		}
	}

	return 2.0 * float64(overlap) / float64(n1+n2)
}

// Normalize converts a title to its canonical comparison form: lowercase,
// diacritics folded to base letters, non-alphanumeric characters stripped,
// separators collapsed to single spaces. "&" is equivalent to "and"
// (e.g. "Me & You" matches "Me and You").
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")
	s = stripDiacritics(s)

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else if unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == '(' || r == ')' || r == ':' {
			result.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// stripDiacritics decomposes accented letters and drops the combining marks,
// so "Café" folds to "Cafe". The transformer chain is stateful and built per
// call.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// BestMatch returns the candidate most similar to query along with its score.
// Ties are broken by first occurrence in the candidate slice. ok is false when
// candidates is empty.
func BestMatch(query string, candidates []string) (best string, score float64, ok bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}
	best, score = candidates[0], Similarity(query, candidates[0])
	for _, c := range candidates[1:] {
		if s := Similarity(query, c); s > score {
			best, score = c, s
		}
	}
	return best, score, true
}

// bigrams counts character pairs over the normalized rune sequence and
// returns the total pair count.
func bigrams(s string) (map[string]int, int) {
	runes := []rune(s)
	counts := make(map[string]int, len(runes))
	total := 0
	for i := 0; i+1 < len(runes); i++ {
		counts[string(runes[i:i+2])]++
		total++
	}
	return counts, total
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
