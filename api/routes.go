package api

import (
	"log"
	"net/http"
	"time"

	"dramabridge/handlers"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for all routes; the host runtime loads the
// addon cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware tags each request with an id and logs method, path
// and duration.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()[:8]
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[api] %s %s %s (%s)", reqID, r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

// Register mounts the addon endpoints onto the provided router.
func Register(r *mux.Router, addon *handlers.AddonHandler) {
	r.Use(requestLogMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/manifest.json", addon.Manifest).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/catalog/{type}/{id}.json", addon.Catalog).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/catalog/{type}/{id}/{extra}.json", addon.Catalog).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/meta/{type}/{id}.json", addon.Meta).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/stream/{type}/{id}.json", addon.Stream).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
}
