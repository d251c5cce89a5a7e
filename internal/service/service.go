// Package service implements the bookkeeping operations on shares, members, bets,
// deposits and users on top of the store. HTTP handlers and the CLI both call it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/auth"
	"github.com/kjstillabower/solawi/internal/cache"
	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/store"
)

// ErrInvalidInput wraps every validation failure so callers can map it to a client error.
var ErrInvalidInput = errors.New("invalid input")

// ErrSelfMerge is returned when a share would be merged into itself.
var ErrSelfMerge = errors.New("cannot merge a share with itself")

// ErrForbidden is returned when the acting user may not modify the target.
var ErrForbidden = errors.New("forbidden")

// DefaultPaymentStatusTTL bounds how long a cached payment overview is served.
const DefaultPaymentStatusTTL = 24 * time.Hour

const paymentStatusKeyPrefix = "payment_status:"

// Service carries the dependencies of the bookkeeping operations.
type Service struct {
	store  *store.Store
	cache  cache.Cache
	tokens *auth.TokenIssuer
	ttl    time.Duration
	now    func() time.Time

	// generation is bumped by every invalidation. A payment overview computed while it
	// changed is not kept in the cache.
	generation atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to determine "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPaymentStatusTTL sets the lifetime of cached payment overviews. Zero keeps the default.
func WithPaymentStatusTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a Service. A nil cache disables payment status caching.
func New(st *store.Store, c cache.Cache, tokens *auth.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  c,
		tokens: tokens,
		ttl:    DefaultPaymentStatusTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for health checks.
func (s *Service) Store() *store.Store {
	return s.store
}

func (s *Service) today() models.Date {
	return models.DateOf(s.now())
}

// invalid marks err as a client input error while keeping the original sentinel.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func paymentStatusKey(day models.Date) string {
	return paymentStatusKeyPrefix + day.String()
}

// invalidatePaymentStatus drops today's cached overview. Older keys are unreachable
// once the day changes and expire on their own.
func (s *Service) invalidatePaymentStatus(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, paymentStatusKey(s.today())); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("delete").Inc()
		observability.LoggerFromContext(ctx).Warn("payment status invalidation failed", zap.Error(err))
	}
}

// joinNotes concatenates two optional notes, dropping empty ones.
func joinNotes(a, b *string) *string {
	var parts []string
	for _, n := range []*string{a, b} {
		if n != nil && strings.TrimSpace(*n) != "" {
			parts = append(parts, *n)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "\n")
	return &joined
}
