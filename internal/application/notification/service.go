package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-journal/internal/domain"
)

// SubscriberLister is the read side of the subscriber service used for broadcasts.
type SubscriberLister interface {
	GetAll(ctx context.Context) ([]domain.Subscriber, error)
}

type Service interface {
	Notify(ctx context.Context, req domain.NotifyRequest) (*domain.NotifyResult, error)
}

// Options carries the defaults applied to a notify request.
type Options struct {
	SiteURL         string // base for {SiteURL}/post/{postId}
	DefaultTemplate string // used when the request names no template
	NewPostTemplate string // receives the post title as its only body parameter
}

type service struct {
	subscribers SubscriberLister
	broadcaster *Broadcaster
	opts        Options
}

func NewService(subscribers SubscriberLister, broadcaster *Broadcaster, opts Options) Service {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &service{subscribers: subscribers, broadcaster: broadcaster, opts: opts}
}

// Notify broadcasts a new-post announcement to every subscriber. Individual
// send failures are reported in the result; only a failed subscriber read is an error.
func (s *service) Notify(ctx context.Context, req domain.NotifyRequest) (*domain.NotifyResult, error) {
	subs, err := s.subscribers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	if len(subs) == 0 {
		return &domain.NotifyResult{Success: true, Message: "No subscribers to notify"}, nil
	}

	phones := make([]string, len(subs))
	for i, sub := range subs {
		phones[i] = sub.Phone
	}

	var sum domain.BulkSummary
	if req.UseTemplate == nil || *req.UseTemplate {
		name := req.TemplateName
		if name == "" {
			name = s.opts.DefaultTemplate
		}
		var params []string
		if name == s.opts.NewPostTemplate {
			params = []string{req.Title}
		}
		sum = s.broadcaster.SendBulkTemplate(ctx, phones, name, params)
	} else {
		url := req.URL
		if url == "" {
			url = s.opts.SiteURL + "/post/" + req.PostID
		}
		sum = s.broadcaster.SendBulk(ctx, phones, FormatNewPostMessage(req.Title, url))
	}

	slog.Info("notified subscribers", "post_id", req.PostID, "sent", sum.Sent, "failed", sum.Failed)

	res := &domain.NotifyResult{
		Success: true,
		Sent:    sum.Sent,
		Failed:  sum.Failed,
		Total:   len(subs),
	}
	if len(sum.Errors) > 0 {
		res.Errors = sum.Errors
	}
	return res, nil
}
