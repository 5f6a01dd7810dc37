package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"interview-portal-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// PositionLoader fetches a position tree from a backing store.
type PositionLoader interface {
	LoadPosition(ctx context.Context, positionID int64) (domain.Position, error)
}

// CatalogCache caches position trees with TTL to avoid reloading the full
// topic/question/answer graph on every selector call.
type CatalogCache struct {
	loader PositionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedPosition
}

type cachedPosition struct {
	pos       domain.Position
	expiresAt time.Time
}

func NewCatalogCache(loader PositionLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedPosition),
	}
}

func (c *CatalogCache) GetPosition(ctx context.Context, positionID int64) (domain.Position, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[positionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.pos, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(positionID, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[positionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.pos, nil
		}
		c.mu.RUnlock()

		pos, err := c.loader.LoadPosition(ctx, positionID)
		if err != nil {
			return domain.Position{}, err
		}

		c.mu.Lock()
		c.cache[positionID] = cachedPosition{
			pos:       pos,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return pos, nil
	})
	if err != nil {
		return domain.Position{}, err
	}
	return result.(domain.Position), nil
}

func (c *CatalogCache) InvalidatePosition(_ context.Context, positionID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, positionID)
	return nil
}

func (c *CatalogCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[int64]cachedPosition)
	return nil
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
