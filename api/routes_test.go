package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dramabridge/api"
	"dramabridge/handlers"
	"dramabridge/models"
	"dramabridge/services/catalog"

	"github.com/gorilla/mux"
)

type noopCatalog struct{}

func (noopCatalog) Catalog(_ context.Context, _ catalog.Request) []models.MetaPreview { return nil }
func (noopCatalog) Meta(_ context.Context, _ string) *models.Meta                     { return nil }

func newTestServer() *mux.Router {
	r := mux.NewRouter()
	api.Register(r, handlers.NewAddonHandler(noopCatalog{}, "0.0.1"))
	return r
}

func TestCORSHeadersOnEveryRoute(t *testing.T) {
	router := newTestServer()

	for _, path := range []string{
		"/manifest.json",
		"/catalog/series/kdrama.json",
		"/meta/series/tt24640580.json",
		"/stream/series/tt24640580.json",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: expected permissive CORS origin, got %q", path, got)
		}
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	router := newTestServer()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/catalog/series/cdrama.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty preflight body, got %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected allowed methods header on preflight")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("unexpected health body %q", rec.Body.String())
	}
}
