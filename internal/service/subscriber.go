// Package service provides business logic for the application.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ninjainc/waitlist/internal/metrics"
	"github.com/ninjainc/waitlist/internal/model"
	"github.com/ninjainc/waitlist/internal/redact"
)

// Store is the durable subscriber table.
type Store interface {
	EnsureSchema(ctx context.Context) error
	AddSubscriber(ctx context.Context, email string) (bool, error)
	ListSubscribers(ctx context.Context) ([]*model.Subscriber, error)
}

// ListCache caches the full subscriber listing under a generation number.
// Readers must fetch the generation before querying the store.
type ListCache interface {
	SubscriberGeneration(ctx context.Context) (int64, error)
	CachedSubscribers(ctx context.Context, generation int64) ([]*model.Subscriber, bool, error)
	StoreSubscribers(ctx context.Context, generation int64, subscribers []*model.Subscriber) error
	InvalidateSubscribers(ctx context.Context) error
}

// Subscription outcomes recorded in metrics.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// SubscribeResult describes an accepted signup.
type SubscribeResult struct {
	Email   string
	Created bool
}

// SubscriberService handles waitlist signups and listing.
type SubscriberService struct {
	store   Store
	cache   ListCache
	metrics metrics.Recorder
	logger  *slog.Logger

	schemaMu    sync.Mutex
	schemaReady atomic.Bool

	// staleInvalidations counts signups whose cache invalidation failed.
	// While non-zero the cached listing may be missing rows.
	staleInvalidations atomic.Int64

	configErr error
}

// Option configures a SubscriberService.
type Option func(*SubscriberService)

// WithCache enables the listing cache.
func WithCache(cache ListCache) Option {
	return func(s *SubscriberService) {
		s.cache = cache
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(s *SubscriberService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SubscriberService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfigurationError records why no store could be built, so callers
// see an invalid connection string reported as such.
func WithConfigurationError(err error) Option {
	return func(s *SubscriberService) {
		s.configErr = err
	}
}

// NewSubscriberService creates a new SubscriberService.
// A nil store means the database is not configured: every operation then
// fails with a KindConfiguration error instead of panicking.
func NewSubscriberService(store Store, opts ...Option) *SubscriberService {
	s := &SubscriberService{
		store:   store,
		metrics: metrics.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe validates raw (the decoded "email" field) and stores it if absent.
// A repeat signup succeeds with Created false.
func (s *SubscriberService) Subscribe(ctx context.Context, raw any) (*SubscribeResult, error) {
	email, err := ValidateEmail(raw)
	if err != nil {
		s.metrics.IncSubscription(OutcomeInvalid)
		return nil, err
	}

	if err := s.ready(ctx); err != nil {
		s.metrics.IncSubscription(OutcomeError)
		return nil, err
	}

	start := time.Now()
	created, err := s.store.AddSubscriber(ctx, email)
	s.metrics.ObserveStoreDuration("add", time.Since(start))
	if err != nil {
		s.metrics.IncSubscription(OutcomeError)
		return nil, newStoreError("Failed to subscribe", err)
	}

	if created {
		s.metrics.IncSubscription(OutcomeCreated)
		s.invalidateCache(ctx)
	} else {
		s.metrics.IncSubscription(OutcomeDuplicate)
	}

	s.logger.Info("subscription_received",
		"email", redact.Email(email),
		"created", created,
	)

	return &SubscribeResult{Email: email, Created: created}, nil
}

// List returns every subscriber, newest first. An empty table yields an
// empty, non-nil slice.
func (s *SubscriberService) List(ctx context.Context) ([]*model.Subscriber, error) {
	s.metrics.IncListRequest()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	generation, cacheable := s.cacheGeneration(ctx)
	if cacheable {
		cached, ok, err := s.cache.CachedSubscribers(ctx, generation)
		switch {
		case err != nil:
			s.logger.Warn("list cache read failed", "error", err)
		case ok:
			s.metrics.IncListCacheHit()
			return cached, nil
		default:
			s.metrics.IncListCacheMiss()
		}
	}

	start := time.Now()
	subscribers, err := s.store.ListSubscribers(ctx)
	s.metrics.ObserveStoreDuration("list", time.Since(start))
	if err != nil {
		return nil, newStoreError("Failed to fetch subscribers", err)
	}
	if subscribers == nil {
		subscribers = make([]*model.Subscriber, 0)
	}

	if cacheable {
		if err := s.cache.StoreSubscribers(ctx, generation, subscribers); err != nil {
			s.logger.Warn("list cache write failed", "error", err)
		}
	}

	return subscribers, nil
}

// ready reports a configuration error when there is no store and
// otherwise makes sure the schema exists. A failed attempt is retried on
// the next call.
func (s *SubscriberService) ready(ctx context.Context) error {
	if s.store == nil {
		if s.configErr != nil {
			return newInvalidConfigurationError(s.configErr)
		}
		return newConfigurationError()
	}

	if s.schemaReady.Load() {
		return nil
	}

	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady.Load() {
		return nil
	}
	if err := s.store.EnsureSchema(ctx); err != nil {
		return newStoreError("Failed to prepare database schema", err)
	}
	s.schemaReady.Store(true)
	return nil
}

// cacheGeneration returns the current generation and whether the cache
// should be consulted. Cache failures fall through to the store.
func (s *SubscriberService) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	if !s.retryInvalidation(ctx) {
		return 0, false
	}
	generation, err := s.cache.SubscriberGeneration(ctx)
	if err != nil {
		s.logger.Warn("list cache unavailable", "error", err)
		return 0, false
	}
	return generation, true
}

func (s *SubscriberService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSubscribers(ctx); err != nil {
		s.staleInvalidations.Add(1)
		s.logger.Error("list cache invalidation failed", "error", err)
	}
}

// retryInvalidation bumps the generation for signups whose invalidation
// failed. It reports false while the cached listing cannot be trusted.
func (s *SubscriberService) retryInvalidation(ctx context.Context) bool {
	pending := s.staleInvalidations.Load()
	if pending == 0 {
		return true
	}
	if err := s.cache.InvalidateSubscribers(ctx); err != nil {
		s.logger.Warn("list cache bypassed: invalidation still failing", "error", err)
		return false
	}
	// A signup that failed after the retry keeps the counter non-zero.
	s.staleInvalidations.CompareAndSwap(pending, 0)
	return true
}
