package redisinfra

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-journal/internal/pkg/id"
	"github.com/go-journal/internal/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/sliding_window.lua
var slidingWindowScript string

// SlidingWindowLimiter keeps one sorted set per key holding the timestamps of
// admitted requests. Rejected requests are not recorded, so a caller regains
// quota exactly one window after its oldest admitted request.
type SlidingWindowLimiter struct {
	client redis.Cmdable
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindowLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		script: redis.NewScript(slidingWindowScript),
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	now := l.now()
	res, err := l.script.Run(ctx, l.client,
		[]string{l.prefix + ":" + key},
		now.UnixMilli(), now.Add(-l.window).UnixMilli(), l.window.Milliseconds(), l.limit,
		fmt.Sprintf("%d-%s", now.UnixNano(), id.New()),
	).Int64Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("sliding window: %w", err)
	}
	if len(res) != 2 {
		return ratelimit.Decision{}, fmt.Errorf("sliding window: unexpected reply %v", res)
	}
	return ratelimit.Decision{
		Allowed:   res[0] == 1,
		Limit:     l.limit,
		Remaining: int(res[1]),
	}, nil
}
