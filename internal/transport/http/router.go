package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/pkg/metrics"
	"github.com/go-journal/internal/transport/http/handler"
	appmiddleware "github.com/go-journal/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	operator := appmiddleware.OperatorAuth(cfg.NotifySecret)
	secretSet := appmiddleware.RequireSecret(cfg.NotifySecret)

	healthH := handler.NewHealthHandler()
	subscribeH := handler.NewSubscribeHandler(deps.Subscribers, deps.SubscribeLimiter)
	notifyH := handler.NewNotifyHandler(deps.Notifier)
	linkH := handler.NewLinkHandler(deps.Links)
	pageH := handler.NewPageHandler(deps.Posts, deps.Pages, deps.Links)

	// ── Pages ────────────────────────────────────────────────────────────
	r.Get("/", pageH.Home)
	r.Get("/post/{id}", pageH.Post)
	r.Get("/archive", pageH.Archive)
	r.Get("/about", pageH.About)
	r.NotFound(pageH.NotFound)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────
		r.Post("/subscribe", subscribeH.Subscribe)
		r.With(appmiddleware.RateLimit(deps.LinkLimiter)).Get("/link-metadata", linkH.Metadata)

		// ── Operator routes (bearer NOTIFY_SECRET) ───────────────────────
		r.With(secretSet, operator).Post("/notify", notifyH.Notify)
		r.With(secretSet, operator).Post("/posts/reload", pageH.Reload)
		r.With(operator).Get("/subscribers", subscribeH.List)
	})

	return r
}
