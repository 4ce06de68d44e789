package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-journal/internal/application/subscriber"
	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/metrics"
	"github.com/go-journal/internal/pkg/ratelimit"
	"github.com/go-journal/internal/pkg/validate"
)

// SubscribeHandler handles the public subscribe endpoint and the operator listing.
type SubscribeHandler struct {
	svc     subscriber.Service
	limiter ratelimit.Limiter
}

func NewSubscribeHandler(svc subscriber.Service, limiter ratelimit.Limiter) *SubscribeHandler {
	return &SubscribeHandler{svc: svc, limiter: limiter}
}

// Subscribe validates the body, then applies the per-IP limit, then subscribes.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.SubscribeRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := validate.First(req); err != nil {
		metrics.SubscribeRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := ratelimit.ClientIP(r)
	d, err := h.limiter.Allow(r.Context(), ip)
	switch {
	case err != nil:
		slog.Warn("subscribe rate limiter unavailable, allowing request", "ip", ip, "err", err)
	case !d.Allowed:
		metrics.SubscribeRequests.WithLabelValues("rate_limited").Inc()
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	if _, err := h.svc.Subscribe(r.Context(), req); err != nil {
		metrics.SubscribeRequests.WithLabelValues(outcome(err)).Inc()
		httpError(w, err)
		return
	}
	metrics.SubscribeRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Successfully subscribed!"})
}

// List is the operator debug listing of every subscriber.
func (h *SubscribeHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.GetAll(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	out := make([]SubscriberSummary, len(subs))
	for i, s := range subs {
		out[i] = SubscriberSummary{Name: s.Name, Phone: s.Phone, SubscribedAt: s.SubscribedAt}
	}
	writeJSON(w, http.StatusOK, SubscribersEnvelope{Count: len(out), Subscribers: out})
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "duplicate"
	case errors.Is(err, domain.ErrBadRequest):
		return "invalid"
	default:
		return "error"
	}
}
