package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
)

func TestCacheService_NoBackend(t *testing.T) {
	svc := usecases.NewCacheService(nil, nil, "a")
	if svc.Enabled() {
		t.Error("expected disabled")
	}
	if _, err := svc.Stats(context.Background()); !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Errorf("expected ErrCacheUnavailable, got %v", err)
	}
	if err := svc.ApplyInvalidation(context.Background(), &domain.InvalidationEvent{All: true}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCacheService_InvalidateBroadcasts(t *testing.T) {
	cache := newMockCache()
	cache.entries["Oslo"] = domain.LocationRecord{Name: "Oslo"}
	events := &mockEvents{}
	svc := usecases.NewCacheService(cache, events, "node-a")

	removed, err := svc.Invalidate(context.Background(), " Oslo ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Error("expected entry removed")
	}
	if len(events.invalidations) != 1 {
		t.Fatalf("expected 1 invalidation event, got %d", len(events.invalidations))
	}
	ev := events.invalidations[0]
	if ev.Origin != "node-a" || ev.Location != "Oslo" || ev.All {
		t.Errorf("unexpected event: %+v", ev)
	}

	removed, _ = svc.Invalidate(context.Background(), "Oslo")
	if removed {
		t.Error("expected nothing removed the second time")
	}
}

func TestCacheService_ClearBroadcastsAll(t *testing.T) {
	cache := newMockCache()
	cache.entries["a"] = domain.LocationRecord{}
	cache.entries["b"] = domain.LocationRecord{}
	events := &mockEvents{}
	svc := usecases.NewCacheService(cache, events, "node-a")

	n, err := svc.Clear(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if len(events.invalidations) != 1 || !events.invalidations[0].All {
		t.Errorf("expected a clear-all event, got %+v", events.invalidations)
	}
}

func TestCacheService_ApplyInvalidation(t *testing.T) {
	cache := newMockCache()
	cache.entries["Oslo"] = domain.LocationRecord{Name: "Oslo"}
	cache.entries["Bergen"] = domain.LocationRecord{Name: "Bergen"}
	svc := usecases.NewCacheService(cache, nil, "node-a")
	ctx := context.Background()

	// Own events are ignored.
	_ = svc.ApplyInvalidation(ctx, &domain.InvalidationEvent{Origin: "node-a", Location: "Oslo"})
	if _, ok := cache.entries["Oslo"]; !ok {
		t.Fatal("own event must be ignored")
	}

	_ = svc.ApplyInvalidation(ctx, &domain.InvalidationEvent{Origin: "node-b", Location: "Oslo"})
	if _, ok := cache.entries["Oslo"]; ok {
		t.Error("expected Oslo removed")
	}

	_ = svc.ApplyInvalidation(ctx, &domain.InvalidationEvent{Origin: "node-b", All: true})
	if len(cache.entries) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(cache.entries))
	}
}

func TestCacheService_LookupValidates(t *testing.T) {
	svc := usecases.NewCacheService(newMockCache(), nil, "a")
	if _, err := svc.Lookup(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
