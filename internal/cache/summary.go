// Package cache keeps computed product summaries in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pricewatch/backend/internal/pricing"
)

const keyPrefix = "pricewatch:summary:"

// SummaryCache stores pricing.Summary values keyed by product. A nil
// *SummaryCache is valid and always misses.
type SummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Connect parses a redis:// URL and verifies connectivity.
func Connect(ctx context.Context, url string, ttl time.Duration) (*SummaryCache, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl), client, nil
}

// New wraps an existing client.
func New(client redis.Cmdable, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

func key(productID uuid.UUID) string {
	return keyPrefix + productID.String()
}

// Get returns the cached summary. ok is false on a miss.
func (c *SummaryCache) Get(ctx context.Context, productID uuid.UUID) (*pricing.Summary, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading summary cache: %w", err)
	}

	var s pricing.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decoding cached summary: %w", err)
	}
	return &s, true, nil
}

// Set stores the summary with the cache TTL.
func (c *SummaryCache) Set(ctx context.Context, productID uuid.UUID, s *pricing.Summary) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := c.client.Set(ctx, key(productID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing summary cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary of a product.
func (c *SummaryCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(productID)).Err(); err != nil {
		return fmt.Errorf("invalidating summary cache: %w", err)
	}
	return nil
}
