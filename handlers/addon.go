package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dramabridge/models"
	catalogpkg "dramabridge/services/catalog"

	"github.com/gorilla/mux"
)

type catalogService interface {
	Catalog(ctx context.Context, req catalogpkg.Request) []models.MetaPreview
	Meta(ctx context.Context, id string) *models.Meta
}

var _ catalogService = (*catalogpkg.Service)(nil)

// AddonHandler serves the host runtime's addon contract: manifest, catalog,
// meta and stream resources.
type AddonHandler struct {
	Service catalogService
	Version string
}

func NewAddonHandler(service catalogService, version string) *AddonHandler {
	return &AddonHandler{Service: service, Version: version}
}

func (h *AddonHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	extra := []models.CatalogExtra{
		{Name: "search"},
		{Name: "skip"},
		{Name: "genre"},
	}
	writeJSON(w, models.Manifest{
		ID:          "com.dramabridge.addon",
		Version:     h.Version,
		Name:        "DramaBridge",
		Description: "Asian drama catalogs reconciled to canonical IMDb identities",
		Resources:   []string{"catalog", "meta", "stream"},
		Types:       []string{"series"},
		Catalogs: []models.ManifestCatalog{
			{Type: "series", ID: "cdrama", Name: "Chinese Dramas", Extra: extra},
			{Type: "series", ID: "kdrama", Name: "Korean Dramas", Extra: extra},
		},
		IDPrefixes: []string{"tt"},
	})
}

type catalogResponse struct {
	Metas []models.MetaPreview `json:"metas"`
}

func (h *AddonHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	req := catalogpkg.Request{
		Category: vars["id"],
		Limit:    50,
	}
	if extra, ok := vars["extra"]; ok {
		applyExtra(&req, extra)
	}

	metas := h.Service.Catalog(r.Context(), req)
	if metas == nil {
		metas = []models.MetaPreview{}
	}
	writeJSON(w, catalogResponse{Metas: metas})
}

type metaResponse struct {
	Meta *models.Meta `json:"meta"`
}

func (h *AddonHandler) Meta(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, metaResponse{Meta: h.Service.Meta(r.Context(), id)})
}

type streamResponse struct {
	Streams []struct{} `json:"streams"`
}

// Stream always answers with an empty result: this addon supplies identity
// and metadata, never media.
func (h *AddonHandler) Stream(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, streamResponse{Streams: []struct{}{}})
}

// applyExtra parses the extra path segment ("search=Hidden&skip=10&genre=Drama")
// into the catalog request. Unknown or malformed props are ignored.
func applyExtra(req *catalogpkg.Request, extra string) {
	values, err := url.ParseQuery(extra)
	if err != nil {
		log.Printf("[addon] unparsable extra segment %q: %v", extra, err)
		return
	}
	req.Search = strings.TrimSpace(values.Get("search"))
	req.Genre = strings.TrimSpace(values.Get("genre"))
	if skip, err := strconv.Atoi(values.Get("skip")); err == nil && skip >= 0 {
		req.Skip = skip
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		req.Limit = limit
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[addon] failed to encode response: %v", err)
	}
}
