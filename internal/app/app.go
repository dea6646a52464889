// Package app wires configuration into adapters and services. Every binary
// builds its object graph through here so backends are selected the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/meteomcp/internal/adapters/authentik"
	"github.com/samirrijal/meteomcp/internal/adapters/filecache"
	"github.com/samirrijal/meteomcp/internal/adapters/openmeteo"
	"github.com/samirrijal/meteomcp/internal/adapters/postgres"
	"github.com/samirrijal/meteomcp/internal/adapters/valkey"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
)

// Version is reported by the service info endpoint and the MCP handshake.
const Version = "2.0.0"

// CacheBackend is an opened location cache plus the connections behind it.
type CacheBackend struct {
	Name   string
	Cache  ports.LocationCache
	DB     *postgres.DB
	Valkey *valkey.Client
}

// Close releases the backend's connections.
func (b *CacheBackend) Close() {
	if b == nil {
		return
	}
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Valkey != nil {
		b.Valkey.Close()
	}
}

// OpenCache constructs the location cache named by backend, falling back to
// cfg.Cache.Backend when backend is empty. The "none" backend returns a
// CacheBackend with a nil Cache.
func OpenCache(ctx context.Context, cfg *config.Config, backend string) (*CacheBackend, error) {
	if backend == "" {
		backend = cfg.Cache.Backend
	}
	b := &CacheBackend{Name: backend}

	switch backend {
	case config.BackendFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = filecache.DefaultDir()
		}
		c, err := filecache.New(dir, cfg.Cache.File, cfg.Cache.ExpiryDays)
		if err != nil {
			return nil, fmt.Errorf("file cache: %w", err)
		}
		b.Cache = c

	case config.BackendValkey:
		client, err := valkey.New(valkey.Options{
			Addr:     cfg.Valkey.Addr,
			Password: cfg.Valkey.Password,
			DB:       cfg.Valkey.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("valkey: %w", err)
		}
		timeout := cfg.Valkey.Timeout
		if timeout <= 0 {
			timeout = valkey.DefaultTimeout
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			client.Close()
			return nil, fmt.Errorf("valkey ping: %w", err)
		}
		b.Valkey = client
		b.Cache = valkey.NewLocationCache(client, cfg.Valkey.Namespace, cfg.Cache.ExpiryDays, timeout)

	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.DB = db
		b.Cache = postgres.NewLocationCache(db, cfg.Cache.ExpiryDays)

	case config.BackendNone:

	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}

	return b, nil
}

// OpenCacheOrNone is OpenCache for long-running services: a backend that
// cannot be opened is logged and the service runs uncached.
func OpenCacheOrNone(ctx context.Context, cfg *config.Config) *CacheBackend {
	b, err := OpenCache(ctx, cfg, "")
	if err != nil {
		slog.Warn("location cache unavailable, continuing without cache",
			"backend", cfg.Cache.Backend,
			"error", err,
		)
		return &CacheBackend{Name: config.BackendNone}
	}
	if b.Cache != nil {
		slog.Info("location cache ready", "backend", b.Name, "expiry_days", cfg.Cache.ExpiryDays)
	}
	return b
}

// NewProvider builds the Open-Meteo client from configuration.
func NewProvider(cfg *config.Config) *openmeteo.Client {
	return openmeteo.New(openmeteo.Options{
		GeocodingURL:   cfg.OpenMeteo.GeocodingURL,
		WeatherURL:     cfg.OpenMeteo.WeatherURL,
		ConnectTimeout: cfg.OpenMeteo.ConnectTimeout,
		Timeout:        cfg.OpenMeteo.Timeout,
		RatePerSecond:  cfg.OpenMeteo.RatePerSecond,
		Burst:          cfg.OpenMeteo.Burst,
		UserAgent:      "meteomcp/" + Version,
	})
}

// Services is the set of use cases exposed by the transports.
type Services struct {
	Geocoding *usecases.GeocodingService
	Weather   *usecases.WeatherService
	Cache     *usecases.CacheService
	Auth      *usecases.AuthService
}

// NewServices wires the use cases. events may be nil. Auth is nil unless an
// Authentik URL is configured.
func NewServices(cfg *config.Config, backend *CacheBackend, events ports.EventPublisher, origin string) *Services {
	provider := NewProvider(cfg)

	// Keep the interface nil when there is no cache so services see "disabled".
	var cache ports.LocationCache
	if backend != nil && backend.Cache != nil {
		cache = backend.Cache
	}

	opts := []usecases.GeocodingOption{
		usecases.WithResultCount(cfg.OpenMeteo.ResultCount),
	}
	if backend != nil {
		opts = append(opts, usecases.WithCacheBackend(backend.Name))
	}
	if events != nil {
		opts = append(opts, usecases.WithEvents(events))
	}
	geo := usecases.NewGeocodingService(provider, cache, opts...)

	s := &Services{
		Geocoding: geo,
		Weather:   usecases.NewWeatherService(geo, provider),
		Cache:     usecases.NewCacheService(cache, events, origin),
	}
	if cfg.Authentik.APIURL != "" {
		s.Auth = usecases.NewAuthService(authentik.New(cfg.Authentik.APIURL, cfg.Authentik.Timeout, cfg.Authentik.CacheTTL))
	}
	return s
}

// SubscribePeers applies invalidations broadcast by other instances to this
// process's cache. It is a no-op when the cache is disabled.
func SubscribePeers(ctx context.Context, sub ports.EventSubscriber, cache *usecases.CacheService) error {
	if sub == nil || !cache.Enabled() {
		return nil
	}
	if err := sub.SubscribeInvalidations(ctx, cache.ApplyInvalidation); err != nil {
		return fmt.Errorf("subscribe invalidations: %w", err)
	}
	return nil
}
