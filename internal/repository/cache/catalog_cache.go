package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"crm-intake-backend/internal/domain"
	"crm-intake-backend/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

const (
	boardOptionsKey = "catalog:board_options"
	segmentsKey     = "catalog:segments"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

type catalogCache struct {
	client *goredis.Client
	ttl    time.Duration

	mu     sync.RWMutex
	memory map[string]memoryItem
	now    func() time.Time
}

// NewCatalogCache stores option catalogs in Redis, or in process when client
// is nil. A ttl of zero or less disables caching.
func NewCatalogCache(client *goredis.Client, ttl time.Duration) domain.CatalogCache {
	return &catalogCache{
		client: client,
		ttl:    ttl,
		memory: make(map[string]memoryItem),
		now:    time.Now,
	}
}

func (c *catalogCache) GetBoardOptions(ctx context.Context) (*domain.BoardOptions, bool) {
	var opts domain.BoardOptions
	if !c.get(ctx, boardOptionsKey, &opts) {
		return nil, false
	}
	return &opts, true
}

func (c *catalogCache) SetBoardOptions(ctx context.Context, opts *domain.BoardOptions) {
	c.set(ctx, boardOptionsKey, opts)
}

func (c *catalogCache) GetSegments(ctx context.Context) ([]domain.SegmentOption, bool) {
	var segments []domain.SegmentOption
	if !c.get(ctx, segmentsKey, &segments) {
		return nil, false
	}
	return segments, true
}

func (c *catalogCache) SetSegments(ctx context.Context, segments []domain.SegmentOption) {
	c.set(ctx, segmentsKey, segments)
}

func (c *catalogCache) Invalidate(ctx context.Context) {
	if c.client != nil {
		if err := c.client.Del(ctx, boardOptionsKey, segmentsKey).Err(); err != nil {
			logger.Log.Warn("Failed to invalidate catalog cache", "error", err)
		}
		return
	}
	c.mu.Lock()
	delete(c.memory, boardOptionsKey)
	delete(c.memory, segmentsKey)
	c.mu.Unlock()
}

func (c *catalogCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.ttl <= 0 {
		return false
	}

	var raw []byte
	if c.client != nil {
		b, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			if err != goredis.Nil {
				logger.Log.Warn("Catalog cache read failed", "key", key, "error", err)
			}
			return false
		}
		raw = b
	} else {
		c.mu.RLock()
		item, ok := c.memory[key]
		c.mu.RUnlock()
		if !ok || !item.expiresAt.After(c.now()) {
			return false
		}
		raw = item.value
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.Warn("Discarding unreadable catalog cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (c *catalogCache) set(ctx context.Context, key string, value interface{}) {
	if c.ttl <= 0 {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("Failed to encode catalog cache entry", "key", key, "error", err)
		return
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Log.Warn("Catalog cache write failed", "key", key, "error", err)
		}
		return
	}

	c.mu.Lock()
	c.memory[key] = memoryItem{value: raw, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
