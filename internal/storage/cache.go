package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"linkedin-ingest/internal/models"
)

const cacheKeyPrefix = "linkedin-ingest:doc:"

// DocumentCache holds finished documents by profile id.
type DocumentCache interface {
	Get(ctx context.Context, profileID string) (models.ProfileDocument, bool, error)
	Set(ctx context.Context, profileID string, doc models.ProfileDocument) error
	Close() error
}

// NewDocumentCache returns the cache named by cfg.Driver, or nil when
// caching is disabled.
func NewDocumentCache(cfg models.CacheConfig) (DocumentCache, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(cfg.MaxEntries, cfg.TTL), nil
	case "redis":
		c, err := NewRedisCache(cfg.URL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// MemoryCache is a size-bounded LRU whose entries expire after a TTL.
type MemoryCache struct {
	lru *expirable.LRU[string, models.ProfileDocument]
}

// NewMemoryCache creates a cache of at most size entries.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1000
	}
	return &MemoryCache{lru: expirable.NewLRU[string, models.ProfileDocument](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, profileID string) (models.ProfileDocument, bool, error) {
	doc, ok := c.lru.Get(profileID)
	return doc, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, profileID string, doc models.ProfileDocument) error {
	c.lru.Add(profileID, doc)
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// RedisCache stores JSON-encoded documents in redis with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to the redis instance at url.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, profileID string) (models.ProfileDocument, bool, error) {
	data, err := c.rdb.Get(ctx, cacheKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ProfileDocument{}, false, nil
	}
	if err != nil {
		return models.ProfileDocument{}, false, fmt.Errorf("redis get: %w", err)
	}
	var doc models.ProfileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.ProfileDocument{}, false, fmt.Errorf("decode cached document: %w", err)
	}
	return doc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, profileID string, doc models.ProfileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, cacheKey(profileID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

func cacheKey(profileID string) string {
	return cacheKeyPrefix + profileID
}
