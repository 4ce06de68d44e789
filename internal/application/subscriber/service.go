package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/id"
	"github.com/go-journal/internal/pkg/phone"
)

var (
	ErrAlreadySubscribed = domain.NewError(domain.ErrConflict, "This phone number is already subscribed")
	ErrInvalidPhone      = domain.NewError(domain.ErrBadRequest, "Invalid phone number format. Use international format: +1234567890")
	ErrBlankName         = domain.NewError(domain.ErrBadRequest, "Name is required")
)

type Service interface {
	Subscribe(ctx context.Context, req domain.SubscribeRequest) (*domain.Subscriber, error)
	Unsubscribe(ctx context.Context, phone string) (bool, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Subscriber, error)
	GetAll(ctx context.Context) ([]domain.Subscriber, error)
	Count(ctx context.Context) (int64, error)
	IsSubscribed(ctx context.Context, phone string) (bool, error)
}

// Store is the persistence contract shared by every subscriber backend.
// Phones passed in are already normalized.
type Store interface {
	Exists(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, s *domain.Subscriber) error
	Delete(ctx context.Context, phone string) (bool, error)
	Get(ctx context.Context, phone string) (*domain.Subscriber, error)
	List(ctx context.Context) ([]domain.Subscriber, error)
	Count(ctx context.Context) (int64, error)
	IsMember(ctx context.Context, phone string) (bool, error)
}

type service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) Subscribe(ctx context.Context, req domain.SubscribeRequest) (*domain.Subscriber, error) {
	p := phone.Normalize(req.Phone)
	if !phone.IsValid(p) {
		return nil, ErrInvalidPhone
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrBlankName
	}
	exists, err := s.store.Exists(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("check subscriber: %w", err)
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}
	sub := &domain.Subscriber{
		ID:           id.New(),
		Phone:        p,
		Name:         name,
		SubscribedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if req.Metadata != nil {
		sub.Metadata = *req.Metadata
	}
	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("store subscriber: %w", err)
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, raw string) (bool, error) {
	return s.store.Delete(ctx, phone.Normalize(raw))
}

func (s *service) GetByPhone(ctx context.Context, raw string) (*domain.Subscriber, error) {
	return s.store.Get(ctx, phone.Normalize(raw))
}

func (s *service) GetAll(ctx context.Context) ([]domain.Subscriber, error) {
	return s.store.List(ctx)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func (s *service) IsSubscribed(ctx context.Context, raw string) (bool, error) {
	return s.store.IsMember(ctx, phone.Normalize(raw))
}
