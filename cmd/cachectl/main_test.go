package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/samirrijal/meteomcp/internal/adapters/filecache"
	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
)

func newCache(t *testing.T) (*filecache.Cache, *usecases.CacheService) {
	t.Helper()
	fc, err := filecache.New(t.TempDir(), "cache.json", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return fc, usecases.NewCacheService(fc, nil, "test")
}

func TestExecute_Parse(t *testing.T) {
	var buf bytes.Buffer
	if err := execute(context.Background(), nil, []string{"parse", "Springfield,", "IL"}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Parsed    domain.ParsedLocation `json:"parsed"`
		CacheKey  string                `json:"cache_key"`
		StateName string                `json:"state_name"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Parsed.City != "Springfield" || out.Parsed.State != "IL" {
		t.Errorf("unexpected parse: %+v", out.Parsed)
	}
	if out.StateName != "Illinois" {
		t.Errorf("unexpected state name %q", out.StateName)
	}
	if out.CacheKey != "springfield_il" {
		t.Errorf("unexpected key %q", out.CacheKey)
	}
}

func TestExecute_GetAndInvalidate(t *testing.T) {
	fc, svc := newCache(t)
	ctx := context.Background()
	rec := domain.LocationRecord{Latitude: 48.85, Longitude: 2.35, Name: "Paris", Country: "France", Timezone: "Europe/Paris", CachedAt: time.Now()}
	if err := fc.Set(ctx, "Paris, France", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := execute(ctx, svc, []string{"get", "paris,france"}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got domain.LocationRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Name != "Paris" || got.Country != "France" {
		t.Errorf("unexpected record: %+v", got)
	}

	buf.Reset()
	if err := execute(ctx, svc, []string{"invalidate", "Paris, France"}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := execute(ctx, svc, []string{"get", "Paris, France"}, &buf); err == nil {
		t.Error("expected error after invalidation")
	}
}

func TestExecute_Stats(t *testing.T) {
	_, svc := newCache(t)

	var buf bytes.Buffer
	if err := execute(context.Background(), svc, []string{"stats"}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stats domain.CacheStats
	if err := json.Unmarshal(buf.Bytes(), &stats); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if stats.Backend != "file" || stats.Total != 0 || stats.ExpiryDays != 30 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestExecute_Errors(t *testing.T) {
	_, svc := newCache(t)
	ctx := context.Background()

	if err := execute(ctx, svc, []string{"get"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing location")
	}
	if err := execute(ctx, svc, []string{"frobnicate"}, &bytes.Buffer{}); err != errUsage {
		t.Errorf("expected usage error, got %v", err)
	}
}
