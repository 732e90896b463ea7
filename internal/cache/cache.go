// Package cache implements the query-fingerprint result cache. A search's
// full (pre-pagination) listing set is stored under its fingerprint with
// an explicit TTL, replacing ambient cross-page storage of results: any
// page of the same query can be served from one cached set, and entries
// can be invalidated explicitly.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/triporo/booking-api/internal/config"
	"github.com/triporo/booking-api/internal/model"
)

// ResultCache stores normalized listing sets in Redis. A nil *ResultCache
// is valid and disables caching entirely, which is how the service
// degrades when Redis is unreachable at startup.
type ResultCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New builds a ResultCache from the loaded config. It returns nil when
// caching is disabled or no Redis client is available.
func New(rdb *redis.Client, cfg config.SearchCacheConfig) *ResultCache {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResultCache{rdb: rdb, ttl: ttl, prefix: cfg.Prefix}
}

func (c *ResultCache) key(fingerprint string) string {
	return c.prefix + ":" + fingerprint
}

// Get returns the cached listing set for a fingerprint. Cache errors are
// logged and reported as misses so a Redis hiccup never fails a search.
func (c *ResultCache) Get(ctx context.Context, fingerprint string) ([]model.NormalizedListing, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get failed: %v", err)
		return nil, false
	}
	var listings []model.NormalizedListing
	if err := json.Unmarshal(raw, &listings); err != nil {
		log.Printf("cache: corrupt entry for %s, dropping: %v", fingerprint, err)
		c.Invalidate(ctx, fingerprint)
		return nil, false
	}
	return listings, true
}

// Set stores a listing set under the fingerprint with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, fingerprint string, listings []model.NormalizedListing) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(listings)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(fingerprint), raw, c.ttl).Err(); err != nil {
		log.Printf("cache: set failed: %v", err)
	}
}

// Invalidate drops the cached set for a fingerprint.
func (c *ResultCache) Invalidate(ctx context.Context, fingerprint string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(fingerprint)).Err(); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
}
