package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ninjainc/waitlist/internal/model"
)

// Cache keys for the subscriber listing.
//
// A listing is stored under the generation that was current before the
// database was read. Every new subscriber bumps the generation, so a
// listing computed before an insert can never be served after it.
const (
	subscriberGenKey        = "subscribers:gen"
	subscriberListKeyPrefix = "subscribers:list:"
)

// cachedSubscriber is the stored form of a listing entry.
type cachedSubscriber struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func subscriberListKey(generation int64) string {
	return subscriberListKeyPrefix + strconv.FormatInt(generation, 10)
}

// SubscriberGeneration returns the current listing generation (0 if unset).
func (c *Cache) SubscriberGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, subscriberGenKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get subscriber generation: %w", err)
	}
	return gen, nil
}

// CachedSubscribers returns the listing stored for generation.
// The bool is false on a miss.
func (c *Cache) CachedSubscribers(ctx context.Context, generation int64) ([]*model.Subscriber, bool, error) {
	data, err := c.client.Get(ctx, subscriberListKey(generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []cachedSubscriber
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.client.Del(ctx, subscriberListKey(generation))
		return nil, false, nil
	}

	subscribers := make([]*model.Subscriber, 0, len(entries))
	for _, e := range entries {
		sub := &model.Subscriber{ID: e.ID, Email: e.Email}
		if err := sub.CreatedAt.UnmarshalText([]byte(e.CreatedAt)); err != nil {
			c.client.Del(ctx, subscriberListKey(generation))
			return nil, false, nil
		}
		subscribers = append(subscribers, sub)
	}

	return subscribers, true, nil
}

// StoreSubscribers caches a listing under generation with the list TTL.
func (c *Cache) StoreSubscribers(ctx context.Context, generation int64, subscribers []*model.Subscriber) error {
	entries := make([]cachedSubscriber, 0, len(subscribers))
	for _, s := range subscribers {
		createdAt, err := s.CreatedAt.MarshalText()
		if err != nil {
			return fmt.Errorf("failed to encode created_at: %w", err)
		}
		entries = append(entries, cachedSubscriber{
			ID:        s.ID,
			Email:     s.Email,
			CreatedAt: string(createdAt),
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode subscribers: %w", err)
	}

	if err := c.client.Set(ctx, subscriberListKey(generation), data, c.listTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache subscribers: %w", err)
	}
	return nil
}

// InvalidateSubscribers bumps the generation so cached listings are no
// longer read. Old entries expire on their own.
func (c *Cache) InvalidateSubscribers(ctx context.Context) error {
	if err := c.client.Incr(ctx, subscriberGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump subscriber generation: %w", err)
	}
	return nil
}
