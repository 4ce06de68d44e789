package redisinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-journal/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Hash per subscriber plus one set of every subscribed phone.
const (
	subscriberKeyPrefix = "subscribers:"
	subscriberListKey   = "subscribers:list"
)

// Hash field names.
const (
	fieldID           = "id"
	fieldPhone        = "phone"
	fieldName         = "name"
	fieldSubscribedAt = "subscribedAt"
	fieldMetadata     = "metadata"
)

func subscriberKey(phone string) string { return subscriberKeyPrefix + phone }

// SubscriberRepo stores subscribers as Redis hashes indexed by a membership set.
type SubscriberRepo struct {
	client redis.Cmdable
}

func NewSubscriberRepo(client redis.Cmdable) *SubscriberRepo {
	return &SubscriberRepo{client: client}
}

func (r *SubscriberRepo) Exists(ctx context.Context, phone string) (bool, error) {
	n, err := r.client.Exists(ctx, subscriberKey(phone)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create writes the hash and the set member in one pipelined round trip.
// The pipeline is not transactional: if one command fails the other may
// still have been applied, and nothing reconciles the two.
func (r *SubscriberRepo) Create(ctx context.Context, s *domain.Subscriber) error {
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, subscriberKey(s.Phone), map[string]interface{}{
		fieldID:           s.ID,
		fieldPhone:        s.Phone,
		fieldName:         s.Name,
		fieldSubscribedAt: s.SubscribedAt.UTC().Format(time.RFC3339Nano),
		fieldMetadata:     string(meta),
	})
	pipe.SAdd(ctx, subscriberListKey, s.Phone)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes the hash and the set member together and reports whether the hash existed.
func (r *SubscriberRepo) Delete(ctx context.Context, phone string) (bool, error) {
	pipe := r.client.Pipeline()
	del := pipe.Del(ctx, subscriberKey(phone))
	pipe.SRem(ctx, subscriberListKey, phone)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

func (r *SubscriberRepo) Get(ctx context.Context, phone string) (*domain.Subscriber, error) {
	data, err := r.client.HGetAll(ctx, subscriberKey(phone)).Result()
	if err != nil {
		return nil, err
	}
	s, ok := parseSubscriber(data)
	if !ok {
		return nil, fmt.Errorf("subscriber not found: %w", domain.ErrNotFound)
	}
	return s, nil
}

// List reads the membership set and fetches every hash in one pipeline.
// Members whose hash is missing or malformed are skipped.
func (r *SubscriberRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	phones, err := r.client.SMembers(ctx, subscriberListKey).Result()
	if err != nil {
		return nil, err
	}
	if len(phones) == 0 {
		return []domain.Subscriber{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(phones))
	for i, p := range phones {
		cmds[i] = pipe.HGetAll(ctx, subscriberKey(p))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	subs := make([]domain.Subscriber, 0, len(phones))
	for i, cmd := range cmds {
		s, ok := parseSubscriber(cmd.Val())
		if !ok {
			slog.Warn("skipping unreadable subscriber record", "phone", phones[i])
			continue
		}
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubscribedAt.Equal(subs[j].SubscribedAt) {
			return subs[i].Phone < subs[j].Phone
		}
		return subs[i].SubscribedAt.Before(subs[j].SubscribedAt)
	})
	return subs, nil
}

// Count is the cardinality of the membership set, which can drift from the
// number of readable hashes after a partially applied write.
func (r *SubscriberRepo) Count(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, subscriberListKey).Result()
}

// IsMember checks the membership set only; the hash itself is not consulted.
func (r *SubscriberRepo) IsMember(ctx context.Context, phone string) (bool, error) {
	return r.client.SIsMember(ctx, subscriberListKey, phone).Result()
}

// parseSubscriber accepts a hash only when id, phone, name and subscribedAt
// are all present. Metadata falls back to empty when missing or malformed.
func parseSubscriber(data map[string]string) (*domain.Subscriber, bool) {
	if data[fieldID] == "" || data[fieldPhone] == "" || data[fieldName] == "" || data[fieldSubscribedAt] == "" {
		return nil, false
	}
	at, err := time.Parse(time.RFC3339Nano, data[fieldSubscribedAt])
	if err != nil {
		return nil, false
	}
	s := &domain.Subscriber{
		ID:           data[fieldID],
		Phone:        data[fieldPhone],
		Name:         data[fieldName],
		SubscribedAt: at,
	}
	if raw := data[fieldMetadata]; raw != "" {
		var meta domain.SubscriberMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			s.Metadata = meta
		}
	}
	return s, true
}
