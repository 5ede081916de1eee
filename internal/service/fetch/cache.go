package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"guidepost/internal/domain/models/content"
)

// cacheKeyPrefix namespaces fetch entries so the Redis instance can be
// shared with other consumers.
const cacheKeyPrefix = "guidepost:fetch:"

// Cache stores fetched pages under the source URL. Implementations must be
// safe for concurrent use and must never fail a fetch: a broken cache
// behaves like a miss.
type Cache interface {
	Get(ctx context.Context, url string) (*content.FetchResult, bool)
	Set(ctx context.Context, url string, result *content.FetchResult)
}

// cachedPage is the stored form of a fetch result. FetchResult itself
// excludes HTML from its JSON encoding, so the cache keeps its own envelope.
type cachedPage struct {
	URL      string           `json:"url"`
	FinalURL string           `json:"finalUrl"`
	HTML     string           `json:"html"`
	Metadata content.Metadata `json:"metadata"`
}

func (p *cachedPage) toResult() *content.FetchResult {
	return &content.FetchResult{
		URL:       p.URL,
		FinalURL:  p.FinalURL,
		HTML:      p.HTML,
		Metadata:  p.Metadata,
		FromCache: true,
	}
}

func pageFromResult(result *content.FetchResult) *cachedPage {
	return &cachedPage{
		URL:      result.URL,
		FinalURL: result.FinalURL,
		HTML:     result.HTML,
		Metadata: result.Metadata,
	}
}

// redisCache backs the fetch cache with Redis so entries survive restarts
// and are shared across replicas.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to Redis at addr and verifies the connection with a
// ping before returning.
func NewRedisCache(addr string, ttl time.Duration, logger *slog.Logger) (Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, url string) (*content.FetchResult, bool) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+url).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("fetch cache read failed", "url", url, "error", err)
		}
		return nil, false
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		c.logger.Debug("fetch cache entry corrupt", "url", url, "error", err)
		return nil, false
	}
	return page.toResult(), true
}

func (c *redisCache) Set(ctx context.Context, url string, result *content.FetchResult) {
	data, err := json.Marshal(pageFromResult(result))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+url, data, c.ttl).Err(); err != nil {
		c.logger.Debug("fetch cache write failed", "url", url, "error", err)
	}
}

// memoryCache is the fallback when no Redis address is configured. Expired
// entries are pruned opportunistically on writes.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	page    cachedPage
	expires time.Time
}

// NewMemoryCache returns an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) Cache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *memoryCache) Get(_ context.Context, url string) (*content.FetchResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.page.toResult(), true
}

func (c *memoryCache) Set(_ context.Context, url string, result *content.FetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	c.entries[url] = memoryEntry{
		page:    *pageFromResult(result),
		expires: now.Add(c.ttl),
	}
}
