package notification

import (
	"context"
	"fmt"

	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Messenger delivers one message to one recipient. Implementations report
// failures in the SendResult and never panic by contract, though Broadcaster
// tolerates it.
type Messenger interface {
	SendMessage(ctx context.Context, to, text string) domain.SendResult
	SendTemplate(ctx context.Context, to, templateName string, bodyParams []string, languageCode string) domain.SendResult
}

// Broadcaster fans a message out to many recipients at once.
type Broadcaster struct {
	messenger Messenger
	language  string
}

func NewBroadcaster(m Messenger, language string) *Broadcaster {
	return &Broadcaster{messenger: m, language: language}
}

// SendBulk sends text to every phone concurrently and waits for all of them.
func (b *Broadcaster) SendBulk(ctx context.Context, phones []string, text string) domain.BulkSummary {
	return b.fanOut(ctx, phones, "text", func(ctx context.Context, to string) domain.SendResult {
		return b.messenger.SendMessage(ctx, to, text)
	})
}

// SendBulkTemplate sends a template to every phone concurrently and waits for all of them.
func (b *Broadcaster) SendBulkTemplate(ctx context.Context, phones []string, templateName string, bodyParams []string) domain.BulkSummary {
	return b.fanOut(ctx, phones, "template", func(ctx context.Context, to string) domain.SendResult {
		return b.messenger.SendTemplate(ctx, to, templateName, bodyParams, b.language)
	})
}

func (b *Broadcaster) fanOut(ctx context.Context, phones []string, kind string, send func(context.Context, string) domain.SendResult) domain.BulkSummary {
	timer := prometheus.NewTimer(metrics.BroadcastDuration)
	defer timer.ObserveDuration()

	results := make([]domain.SendResult, len(phones))
	var g errgroup.Group
	for i, phone := range phones {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = domain.SendResult{Error: fmt.Sprint(r)}
				}
			}()
			results[i] = send(ctx, phone)
			return nil
		})
	}
	_ = g.Wait()
	return summarize(results, kind)
}

// summarize counts outcomes and keeps each distinct error once, in first-seen order.
func summarize(results []domain.SendResult, kind string) domain.BulkSummary {
	sum := domain.BulkSummary{Errors: []string{}}
	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Success {
			sum.Sent++
			continue
		}
		sum.Failed++
		if r.Error == "" {
			continue
		}
		if _, dup := seen[r.Error]; !dup {
			seen[r.Error] = struct{}{}
			sum.Errors = append(sum.Errors, r.Error)
		}
	}
	metrics.MessagesSent.WithLabelValues(kind, "sent").Add(float64(sum.Sent))
	metrics.MessagesSent.WithLabelValues(kind, "failed").Add(float64(sum.Failed))
	return sum
}

// FormatNewPostMessage is the free-text body announcing a post.
func FormatNewPostMessage(title, url string) string {
	return fmt.Sprintf("New post: %s\n\n%s", title, url)
}
