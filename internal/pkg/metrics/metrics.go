// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubscribeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_subscribe_requests_total",
			Help: "Subscribe attempts by outcome",
		},
		[]string{"outcome"}, // ok | invalid | duplicate | rate_limited | error
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_messages_total",
			Help: "Outbound subscriber messages by result",
		},
		[]string{"kind", "result"}, // kind: text | template; result: sent | failed
	)

	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journal_broadcast_duration_seconds",
			Help:    "Wall time of a bulk send to every subscriber",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
	)

	LinkPreviewLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_link_preview_lookups_total",
			Help: "Link metadata lookups by source",
		},
		[]string{"source"}, // cache | fetch
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
