package http

import (
	"github.com/go-journal/internal/application/linkpreview"
	"github.com/go-journal/internal/application/notification"
	"github.com/go-journal/internal/application/post"
	"github.com/go-journal/internal/application/subscriber"
	"github.com/go-journal/internal/pkg/ratelimit"
	"github.com/go-journal/internal/render"
)

// Deps holds the services and infrastructure the router wires into handlers.
type Deps struct {
	Subscribers      subscriber.Service
	SubscribeLimiter ratelimit.Limiter
	Notifier         notification.Service
	Links            *linkpreview.Fetcher
	LinkLimiter      ratelimit.Limiter
	Posts            post.Service
	Pages            *render.Pages
}
