// warmer pre-resolves a manifest of locations so the first real lookup for
// each of them is a cache hit.
//
//	warmer [--refresh] [--concurrency N] [manifest.json]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	natsadapter "github.com/samirrijal/meteomcp/internal/adapters/nats"
	"github.com/samirrijal/meteomcp/internal/app"
	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/internal/pkg/geospatial"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// Manifest lists the locations to warm.
type Manifest struct {
	Source    string   `json:"source"`
	Locations []string `json:"locations"`
}

// driftThresholdKm is the distance past which a refreshed location is
// reported as having moved.
const driftThresholdKm = 1.0

type resolver interface {
	Resolve(ctx context.Context, raw string) (*domain.LocationRecord, error)
}

type cacheOps interface {
	Lookup(ctx context.Context, raw string) (*domain.LocationRecord, error)
	Invalidate(ctx context.Context, raw string) (bool, error)
}

// Summary counts the outcome of a warming run.
type Summary struct {
	Resolved int64
	Failed   int64
	Moved    int64
}

func main() {
	var (
		refresh     bool
		concurrency int
	)
	flags := pflag.NewFlagSet("warmer", pflag.ExitOnError)
	flags.BoolVar(&refresh, "refresh", false, "re-resolve locations that are already cached")
	flags.IntVarP(&concurrency, "concurrency", "c", 4, "concurrent lookups")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load("meteomcp-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	manifestPath := "manifest.json"
	if flags.NArg() > 0 {
		manifestPath = flags.Arg(0)
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenCache(ctx, cfg, "")
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer backend.Close()
	if backend.Cache == nil {
		log.Fatal("cache.backend is none, nothing to warm")
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	svc := app.NewServices(cfg, backend, events, "warmer-"+uuid.NewString())

	slog.Info("warming location cache",
		"locations", len(manifest.Locations),
		"source", manifest.Source,
		"backend", backend.Name,
		"refresh", refresh,
	)

	sum := warm(ctx, svc.Geocoding, svc.Cache, manifest.Locations, concurrency, refresh)

	slog.Info("warming complete", "resolved", sum.Resolved, "failed", sum.Failed, "moved", sum.Moved)
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// warm resolves every location with at most concurrency lookups in flight.
// With refresh set, cached entries are dropped first and the new coordinates
// are compared against the old ones.
func warm(ctx context.Context, geo resolver, cache cacheOps, locations []string, concurrency int, refresh bool) Summary {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		sum Summary
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, loc := range locations {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			logger := slog.With("location", loc)

			var previous *domain.LocationRecord
			if refresh {
				previous, _ = cache.Lookup(ctx, loc)
				if previous != nil {
					if _, err := cache.Invalidate(ctx, loc); err != nil {
						logger.Warn("invalidate before refresh", "error", err)
					}
				}
			}

			rec, err := geo.Resolve(ctx, loc)
			if err != nil {
				atomic.AddInt64(&sum.Failed, 1)
				logger.Error("resolve failed", "error", err)
				return
			}
			atomic.AddInt64(&sum.Resolved, 1)

			if previous != nil {
				if d := geospatial.DistanceKm(previous.Point(), rec.Point()); d > driftThresholdKm {
					atomic.AddInt64(&sum.Moved, 1)
					logger.Warn("location moved on refresh", "distance_km", d, "name", rec.Name, "country", rec.Country)
				}
			}
			logger.Debug("resolved", "name", rec.Name, "country", rec.Country)
		}(loc)
	}

	wg.Wait()
	return sum
}
