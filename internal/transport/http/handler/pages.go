package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-journal/internal/application/post"
	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/render"
)

// previewBudget caps how long a page waits for link metadata before
// rendering previews with whatever arrived.
const previewBudget = 3 * time.Second

// PageHandler serves the HTML pages and the operator post reload.
type PageHandler struct {
	posts    post.Service
	pages    *render.Pages
	previews LinkFetcher
}

func NewPageHandler(posts post.Service, pages *render.Pages, previews LinkFetcher) *PageHandler {
	return &PageHandler{posts: posts, pages: pages, previews: previews}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	all := h.posts.All()
	views := make([]render.PostView, len(all))
	var urls []string
	for i, p := range all {
		views[i] = render.NewPostView(p, false)
		urls = append(urls, views[i].PreviewURLs()...)
	}
	h.render(w, http.StatusOK, render.PageHome, render.Data{Posts: views, Previews: h.fetchPreviews(r.Context(), urls)})
}

func (h *PageHandler) Post(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		h.render(w, http.StatusNotFound, render.PageMissing, render.Data{Title: "not found"})
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	view := render.NewPostView(*p, true)
	h.render(w, http.StatusOK, render.PagePost, render.Data{
		Title:    p.Title,
		Post:     &view,
		Previews: h.fetchPreviews(r.Context(), view.PreviewURLs()),
	})
}

func (h *PageHandler) Archive(w http.ResponseWriter, _ *http.Request) {
	all := h.posts.All()
	views := make([]render.PostView, len(all))
	for i, p := range all {
		views[i] = render.PostView{Post: p}
	}
	h.render(w, http.StatusOK, render.PageArchive, render.Data{Title: "archive", Posts: views})
}

func (h *PageHandler) About(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, render.PageAbout, render.Data{Title: "about"})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusNotFound, render.PageMissing, render.Data{Title: "not found"})
}

// Reload re-reads every post file from the configured source.
func (h *PageHandler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.posts.Reload(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	slog.Info("posts reloaded", "count", n)
	writeJSON(w, http.StatusOK, ReloadEnvelope{Success: true, Posts: n})
}

func (h *PageHandler) fetchPreviews(ctx context.Context, urls []string) map[string]domain.LinkMetadata {
	if len(urls) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, previewBudget)
	defer cancel()
	return h.previews.FetchAll(ctx, urls)
}

// render buffers the page so a template error can still become a 500.
func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data render.Data) {
	var buf bytes.Buffer
	if err := h.pages.Render(&buf, page, data); err != nil {
		slog.Error("render page", "page", page, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
