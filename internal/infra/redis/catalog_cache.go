package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"interview-portal-service/internal/domain"
	"interview-portal-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogCache keeps position trees in Redis as JSON documents
// (catalog:position:{id}) and falls back to a loader on cache miss, so every
// server instance shares one warmed catalog.
type CatalogCache struct {
	client *redis.Client
	loader memory.PositionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, loader memory.PositionLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) GetPosition(ctx context.Context, positionID int64) (domain.Position, error) {
	key := c.key(positionID)

	if pos, ok := c.fromCache(ctx, key); ok {
		return pos, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pos, ok := c.fromCache(ctx, key); ok {
			return pos, nil
		}

		pos, err := c.loader.LoadPosition(ctx, positionID)
		if err != nil {
			return domain.Position{}, err
		}

		raw, err := json.Marshal(pos)
		if err != nil {
			return domain.Position{}, fmt.Errorf("marshal position: %w", err)
		}
		// best-effort write; a failed SET just means the next call reloads
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()

		return pos, nil
	})
	if err != nil {
		return domain.Position{}, err
	}
	return result.(domain.Position), nil
}

func (c *CatalogCache) fromCache(ctx context.Context, key string) (domain.Position, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Position{}, false
	}
	var pos domain.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return domain.Position{}, false
	}
	return pos, true
}

func (c *CatalogCache) InvalidatePosition(ctx context.Context, positionID int64) error {
	return c.client.Del(ctx, c.key(positionID)).Err()
}

func (c *CatalogCache) InvalidateAll(ctx context.Context) error {
	keys, err := c.client.Keys(ctx, "catalog:position:*").Result()
	if err != nil {
		return fmt.Errorf("list catalog keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CatalogCache) key(positionID int64) string {
	return "catalog:position:" + strconv.FormatInt(positionID, 10)
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
