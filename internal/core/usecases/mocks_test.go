package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// --- Mock GeocodingProvider ---

type mockProvider struct {
	mu       sync.Mutex
	calls    []string
	searchFn func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error)
}

func (m *mockProvider) Search(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, name, count)
	}
	return nil, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock LocationCache (exact-key map) ---

type mockCache struct {
	mu      sync.Mutex
	entries map[string]domain.LocationRecord
	getErr  error
	setErr  error
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]domain.LocationRecord{}}
}

func (m *mockCache) Get(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.entries[raw]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *mockCache) Set(ctx context.Context, raw string, rec domain.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[raw] = rec
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, raw string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[raw]
	delete(m.entries, raw)
	return ok, nil
}

func (m *mockCache) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = map[string]domain.LocationRecord{}
	return n, nil
}

func (m *mockCache) CleanExpired(ctx context.Context) (int, error) { return 0, nil }

func (m *mockCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CacheStats{Backend: "mock", Total: len(m.entries), Valid: len(m.entries), ExpiryDays: 30}, nil
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu            sync.Mutex
	resolved      []*domain.ResolvedEvent
	invalidations []*domain.InvalidationEvent
	err           error
}

func (m *mockEvents) PublishResolved(ctx context.Context, e *domain.ResolvedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, e)
	return m.err
}

func (m *mockEvents) PublishInvalidation(ctx context.Context, e *domain.InvalidationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations = append(m.invalidations, e)
	return m.err
}

// --- Mock WeatherProvider ---

type mockWeather struct {
	forecastFn func(ctx context.Context, lat, lon float64, tz string) (*domain.Forecast, error)
}

func (m *mockWeather) Forecast(ctx context.Context, lat, lon float64, tz string) (*domain.Forecast, error) {
	if m.forecastFn != nil {
		return m.forecastFn(ctx, lat, lon, tz)
	}
	return &domain.Forecast{}, nil
}

// --- Mock TokenValidator ---

type mockValidator struct {
	validateFn func(ctx context.Context, token string) (*domain.TokenValidation, error)
}

func (m *mockValidator) ValidateToken(ctx context.Context, token string) (*domain.TokenValidation, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return &domain.TokenValidation{Active: false, StatusCode: 403}, nil
}

func ptr[T any](v T) *T { return &v }
