package memory

import (
	"context"
	"testing"
	"time"

	"interview-portal-service/internal/domain"
)

type countingLoader struct {
	calls int
	pos   domain.Position
	err   error
}

func (l *countingLoader) LoadPosition(_ context.Context, positionID int64) (domain.Position, error) {
	l.calls++
	if l.err != nil {
		return domain.Position{}, l.err
	}
	pos := l.pos
	pos.ID = positionID
	return pos, nil
}

func TestCatalogCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{pos: domain.Position{Name: "Backend Engineer", Active: true}}
	cache := NewCatalogCache(loader, time.Minute)

	for i := 0; i < 3; i++ {
		pos, err := cache.GetPosition(ctx, 1)
		if err != nil {
			t.Fatalf("get position: %v", err)
		}
		if pos.Name != "Backend Engineer" {
			t.Fatalf("unexpected position: %+v", pos)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls)
	}
}

func TestCatalogCacheInvalidatePosition(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{pos: domain.Position{Name: "Backend Engineer"}}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.GetPosition(ctx, 1); err != nil {
		t.Fatalf("get position: %v", err)
	}
	if err := cache.InvalidatePosition(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.GetPosition(ctx, 1); err != nil {
		t.Fatalf("get position after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidation, got %d calls", loader.calls)
	}
}

func TestCatalogCacheInvalidateAll(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{pos: domain.Position{Name: "Backend Engineer"}}
	cache := NewCatalogCache(loader, time.Minute)

	_, _ = cache.GetPosition(ctx, 1)
	_, _ = cache.GetPosition(ctx, 2)
	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	_, _ = cache.GetPosition(ctx, 1)
	_, _ = cache.GetPosition(ctx, 2)
	if loader.calls != 4 {
		t.Fatalf("expected 4 loads, got %d", loader.calls)
	}
}

func TestCatalogCachePropagatesLoaderError(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{err: domain.ErrPositionNotFound}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.GetPosition(ctx, 1); err != domain.ErrPositionNotFound {
		t.Fatalf("expected position error, got %v", err)
	}
	// errors must not be cached
	loader.err = nil
	loader.pos = domain.Position{Name: "Backend Engineer"}
	if _, err := cache.GetPosition(ctx, 1); err != nil {
		t.Fatalf("expected recovery after loader error, got %v", err)
	}
}
