package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func springfieldProvider() *mockProvider {
	return &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			return []domain.GeocodeCandidate{
				{Name: "Springfield", Country: "United States", Admin1: "Missouri", Latitude: 37.21, Longitude: -93.29, Timezone: "America/Chicago"},
				{Name: "Springfield", Country: "United States", Admin1: "Illinois", Latitude: 39.80, Longitude: -89.64, Timezone: "America/Chicago"},
			}, nil
		},
	}
}

func TestGeocodingService_Resolve_Disambiguates(t *testing.T) {
	provider := springfieldProvider()
	svc := usecases.NewGeocodingService(provider, nil, usecases.WithClock(func() time.Time { return fixedNow }))

	rec, err := svc.Resolve(context.Background(), "Springfield, IL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Latitude != 39.80 {
		t.Errorf("expected Illinois latitude 39.80, got %v", rec.Latitude)
	}
	if !rec.CachedAt.Equal(fixedNow) {
		t.Errorf("expected cached_at %v, got %v", fixedNow, rec.CachedAt)
	}
	if provider.calls[0] != "Springfield" {
		t.Errorf("expected provider queried with city only, got %q", provider.calls[0])
	}
}

func TestGeocodingService_Resolve_PassesResultCount(t *testing.T) {
	var gotCount int
	provider := &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			gotCount = count
			return []domain.GeocodeCandidate{{Name: "Oslo", Country: "Norway", Latitude: 59.9, Longitude: 10.7}}, nil
		},
	}
	svc := usecases.NewGeocodingService(provider, nil)
	if _, err := svc.Resolve(context.Background(), "Oslo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCount != 10 {
		t.Errorf("expected count 10, got %d", gotCount)
	}
}

func TestGeocodingService_Resolve_CacheHitSkipsProvider(t *testing.T) {
	cache := newMockCache()
	cache.entries["Paris, France"] = domain.LocationRecord{Name: "Paris", Country: "France", Latitude: 48.85, Longitude: 2.35, Timezone: "Europe/Paris"}
	provider := &mockProvider{}

	svc := usecases.NewGeocodingService(provider, cache)
	rec, err := svc.Resolve(context.Background(), "  Paris, France ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Paris" {
		t.Errorf("expected Paris, got %s", rec.Name)
	}
	if provider.callCount() != 0 {
		t.Errorf("expected no provider calls, got %d", provider.callCount())
	}
}

func TestGeocodingService_Resolve_CachesUnderFullQuery(t *testing.T) {
	cache := newMockCache()
	provider := springfieldProvider()
	svc := usecases.NewGeocodingService(provider, cache)

	if _, err := svc.Resolve(context.Background(), "Springfield, IL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.entries["Springfield, IL"]; !ok {
		t.Fatalf("expected entry under full query, got %v", cache.entries)
	}
	if _, ok := cache.entries["Springfield"]; ok {
		t.Error("must not cache under the bare city")
	}

	// Second call is a hit.
	if _, err := svc.Resolve(context.Background(), "Springfield, IL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.callCount() != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.callCount())
	}
}

// A cached bare-city entry must never answer a qualified query.
func TestGeocodingService_Resolve_NoCityOnlyFallback(t *testing.T) {
	cache := newMockCache()
	cache.entries["Paris"] = domain.LocationRecord{Name: "Paris", Country: "United States", Latitude: 33.66, Longitude: -95.55}
	provider := &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			return []domain.GeocodeCandidate{
				{Name: "Paris", Country: "United States", Admin1: "Texas", Latitude: 33.66, Longitude: -95.55},
				{Name: "Paris", Country: "France", Admin1: "Île-de-France", Latitude: 48.85, Longitude: 2.35},
			}, nil
		},
	}

	svc := usecases.NewGeocodingService(provider, cache)
	rec, err := svc.Resolve(context.Background(), "Paris, France")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Country != "France" {
		t.Errorf("expected France, got %s", rec.Country)
	}
	if provider.callCount() != 1 {
		t.Errorf("expected provider consulted, got %d calls", provider.callCount())
	}
}

func TestGeocodingService_Resolve_CacheFailureIsAMiss(t *testing.T) {
	cache := newMockCache()
	cache.getErr = domain.ErrCacheUnavailable
	cache.setErr = domain.ErrCacheUnavailable

	svc := usecases.NewGeocodingService(springfieldProvider(), cache)
	rec, err := svc.Resolve(context.Background(), "Springfield, MO")
	if err != nil {
		t.Fatalf("cache failure must not fail resolution: %v", err)
	}
	if rec.Latitude != 37.21 {
		t.Errorf("expected Missouri, got %v", rec.Latitude)
	}
	if cache.sets != 1 {
		t.Errorf("expected one write attempt, got %d", cache.sets)
	}
}

func TestGeocodingService_Resolve_Validation(t *testing.T) {
	svc := usecases.NewGeocodingService(&mockProvider{}, nil)

	_, err := svc.Resolve(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err.Error() != "Location cannot be empty" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	_, err = svc.Resolve(context.Background(), strings.Repeat("a", 101))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "max 100") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	if _, err := usecases.ValidateLocation(strings.Repeat("é", 100)); err != nil {
		t.Errorf("100 characters must be accepted: %v", err)
	}
}

func TestGeocodingService_Resolve_NotFound(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewGeocodingService(&mockProvider{}, cache)

	_, err := svc.Resolve(context.Background(), "Atlantis")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Location 'Atlantis' not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if cache.sets != 0 {
		t.Error("not-found results must not be cached")
	}
}

func TestGeocodingService_Resolve_SkipsInvalidCoordinates(t *testing.T) {
	provider := &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			return []domain.GeocodeCandidate{
				{Name: "Broken", Country: "Nowhere", Latitude: 123, Longitude: 0},
				{Name: "Broken", Country: "Somewhere", Latitude: 12, Longitude: 34},
			}, nil
		},
	}
	svc := usecases.NewGeocodingService(provider, nil)
	rec, err := svc.Resolve(context.Background(), "Broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Country != "Somewhere" {
		t.Errorf("expected Somewhere, got %s", rec.Country)
	}
}

func TestGeocodingService_Resolve_ProviderErrorPropagates(t *testing.T) {
	upstream := &domain.UpstreamError{Service: "Geocoding", StatusCode: 500, Body: "boom"}
	provider := &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			return nil, upstream
		},
	}
	svc := usecases.NewGeocodingService(provider, newMockCache())

	_, err := svc.Resolve(context.Background(), "Oslo")
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != 500 {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGeocodingService_Resolve_DefaultsTimezone(t *testing.T) {
	provider := &mockProvider{
		searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
			return []domain.GeocodeCandidate{{Name: "Null Island", Latitude: 0, Longitude: 0}}, nil
		},
	}
	svc := usecases.NewGeocodingService(provider, nil)
	rec, err := svc.Resolve(context.Background(), "Null Island")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Timezone != "auto" {
		t.Errorf("expected auto timezone, got %s", rec.Timezone)
	}
}

func TestGeocodingService_Resolve_PublishesEvent(t *testing.T) {
	events := &mockEvents{err: errors.New("nats down")}
	svc := usecases.NewGeocodingService(springfieldProvider(), nil, usecases.WithEvents(events))

	if _, err := svc.Resolve(context.Background(), "Springfield, IL"); err != nil {
		t.Fatalf("publish failure must not fail resolution: %v", err)
	}
	if len(events.resolved) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.resolved))
	}
	ev := events.resolved[0]
	if ev.Key != "springfield_il" || ev.Rule != domain.RuleUSState || ev.ID == "" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestGeocodingService_Resolve_Concurrent(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewGeocodingService(springfieldProvider(), cache)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Resolve(context.Background(), "Springfield, IL"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, _ := cache.Get(context.Background(), "Springfield, IL")
	if rec == nil || rec.Latitude != 39.80 {
		t.Errorf("expected Illinois cached, got %+v", rec)
	}
}
