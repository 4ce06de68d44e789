package handler

import (
	"context"
	"net/http"

	"github.com/go-journal/internal/domain"
)

// LinkFetcher resolves preview metadata for a URL.
type LinkFetcher interface {
	Fetch(ctx context.Context, url string) (domain.LinkMetadata, error)
	FetchAll(ctx context.Context, urls []string) map[string]domain.LinkMetadata
}

type LinkHandler struct {
	fetcher LinkFetcher
}

func NewLinkHandler(fetcher LinkFetcher) *LinkHandler { return &LinkHandler{fetcher: fetcher} }

// Metadata serves GET /api/link-metadata?url=...
func (h *LinkHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	meta, err := h.fetcher.Fetch(r.Context(), target)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, meta)
}
