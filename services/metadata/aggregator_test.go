package metadata

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrichMergesProviderGenres(t *testing.T) {
	svc := newTestService(t, Config{TMDBAPIKey: "k", OMDBAPIKey: "k"}, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/3/find/"):
			return jsonResponse(http.StatusOK, `{"tv_results":[{"id":5,"name":"Moving","genre_ids":[18,28]}]}`), nil
		case strings.Contains(req.URL.Host, "omdbapi.com"):
			return jsonResponse(http.StatusOK, `{"Response":"True","Genre":"Drama, Action","Plot":"Teens with superpowers hide from those hunting them."}`), nil
		}
		t.Errorf("unexpected request %s", req.URL)
		return jsonResponse(http.StatusNotFound, "{}"), nil
	})

	got := svc.Enrich(context.Background(), "tt24640580")

	// 18 and 28 map to Drama and Action, which OMDb repeats: the union must
	// hold exactly two entries, order-independent.
	assert.Len(t, got.Genres, 2)
	assert.ElementsMatch(t, []string{"Drama", "Action"}, got.Genres)
	assert.Equal(t, "Teens with superpowers hide from those hunting them.", got.Summary)
}

func TestEnrichDropsUnknownGenreCodes(t *testing.T) {
	svc := newTestService(t, Config{TMDBAPIKey: "k", OMDBAPIKey: "k"}, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/3/find/"):
			return jsonResponse(http.StatusOK, `{"tv_results":[{"id":5,"name":"X","genre_ids":[18,424242]}]}`), nil
		case strings.Contains(req.URL.Host, "omdbapi.com"):
			return jsonResponse(http.StatusOK, `{"Response":"False"}`), nil
		}
		return jsonResponse(http.StatusNotFound, "{}"), nil
	})

	got := svc.Enrich(context.Background(), "tt0000002")
	assert.Equal(t, []string{"Drama"}, got.Genres)
}

func TestEnrichDegradesWhenOneProviderFails(t *testing.T) {
	svc := newTestService(t, Config{TMDBAPIKey: "k", OMDBAPIKey: "k"}, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/3/find/"):
			return jsonResponse(http.StatusNotFound, "{}"), nil
		case strings.Contains(req.URL.Host, "omdbapi.com"):
			return jsonResponse(http.StatusOK, `{"Response":"True","Genre":"Romance","Plot":"N/A"}`), nil
		}
		return jsonResponse(http.StatusNotFound, "{}"), nil
	})

	got := svc.Enrich(context.Background(), "tt28076458")
	assert.Equal(t, []string{"Romance"}, got.Genres)
	assert.Empty(t, got.Summary, "the N/A sentinel must not surface as a synopsis")
}

func TestEnrichTotalFailureYieldsEmptyResult(t *testing.T) {
	svc := newTestService(t, Config{TMDBAPIKey: "k", OMDBAPIKey: "k"}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, "{}"), nil
	})

	got := svc.Enrich(context.Background(), "tt28076458")
	assert.Empty(t, got.Genres)
	assert.Empty(t, got.Summary)
}
