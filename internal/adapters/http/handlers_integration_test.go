//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	handler "github.com/samirrijal/meteomcp/internal/adapters/http"
	"github.com/samirrijal/meteomcp/internal/adapters/postgres"
	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/migrations"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("meteomcp-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		cfg.Database.URL = dsn
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	up, err := migrations.Up()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if _, err := db.Migrate(ctx, up); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `TRUNCATE location_cache`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// setupTestDeps wires the postgres cache behind a counting mock provider.
func setupTestDeps(t *testing.T, db *postgres.DB, calls *int32) *handler.Dependencies {
	cache := postgres.NewLocationCache(db, 30)
	provider := &mockProvider{searchFn: func(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
		atomic.AddInt32(calls, 1)
		return parisCandidates, nil
	}}
	geo := usecases.NewGeocodingService(provider, cache, usecases.WithCacheBackend("postgres"))
	return &handler.Dependencies{
		Geocoding: geo,
		Weather:   usecases.NewWeatherService(geo, &mockWeather{}),
		Cache:     usecases.NewCacheService(cache, nil, "integration"),
		Auth:      usecases.NewAuthService(&mockValidator{}),
		DB:        db,
		Version:   "test",
	}
}

func TestGeocode_Integration_ReadThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	var calls int32
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db, &calls))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/v1/geocoding?location=Paris,%20France", nil), -1)
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got handler.GeocodingResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if got.Location != "Paris" || got.Country != "France" {
			t.Errorf("unexpected response: %+v", got)
		}
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 provider call, got %d", n)
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/cache/stats", nil), -1)
	var stats domain.CacheStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Backend != "postgres" || stats.Valid != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	var calls int32
	app := setupApp(setupTestDeps(t, setupTestDB(t), &calls))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
