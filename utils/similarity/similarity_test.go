package similarity

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("Hidden Love", "Hidden Love"); got != 1.0 {
		t.Errorf("Similarity(identical) = %v, want 1.0", got)
	}
}

func TestSimilarityNormalizesBeforeComparing(t *testing.T) {
	if got := Similarity("Hidden Love (2023)", "hidden-love 2023"); got != 1.0 {
		t.Errorf("Similarity(normalized-equal) = %v, want 1.0", got)
	}
}

func TestSimilarityFoldsDiacritics(t *testing.T) {
	if got := Similarity("Café Minamdang", "Cafe Minamdang"); got != 1.0 {
		t.Errorf("Similarity(diacritic variant) = %v, want 1.0", got)
	}
}

func TestSimilarityUnrelatedTitles(t *testing.T) {
	got := Similarity("Moving", "Crash Landing on You")
	if got > 0.2 {
		t.Errorf("Similarity(unrelated) = %v, want near 0", got)
	}
}

func TestSimilarityCloseVariants(t *testing.T) {
	got := Similarity("Hidden Love", "Hidden Love Story")
	if got <= 0.6 {
		t.Errorf("Similarity(close variants) = %v, want > 0.6", got)
	}
	if got >= 1.0 {
		t.Errorf("Similarity(close variants) = %v, want < 1.0", got)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", "Moving"); got != 0.0 {
		t.Errorf("Similarity(empty, x) = %v, want 0", got)
	}
	if got := Similarity("", ""); got != 0.0 {
		t.Errorf("Similarity(empty, empty) = %v, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hidden Love (2023)", "hidden love 2023"},
		{"  Me & You  ", "me and you"},
		{"W.H.O.-Agent_007", "w h o agent 007"},
		{"MOVING", "moving"},
		{"Café Minamdang", "cafe minamdang"},
		{"Mañana Seoul", "manana seoul"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBestMatchPicksHighestScore(t *testing.T) {
	candidates := []string{"Crash Landing on You", "Hidden Love", "Moving"}
	best, score, ok := BestMatch("hidden love (2023)", candidates)
	if !ok {
		t.Fatal("BestMatch returned ok=false")
	}
	if best != "Hidden Love" {
		t.Errorf("BestMatch best = %q, want %q", best, "Hidden Love")
	}
	if score <= 0.6 {
		t.Errorf("BestMatch score = %v, want > 0.6", score)
	}
}

func TestBestMatchTieBreaksOnFirstOccurrence(t *testing.T) {
	candidates := []string{"Moving", "moving"}
	best, _, ok := BestMatch("Moving", candidates)
	if !ok || best != "Moving" {
		t.Errorf("BestMatch tie = %q, want first occurrence %q", best, "Moving")
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	if _, _, ok := BestMatch("Moving", nil); ok {
		t.Error("BestMatch(nil candidates) ok = true, want false")
	}
}
