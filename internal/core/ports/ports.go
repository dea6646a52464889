package ports

import (
	"context"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// LocationCache stores resolved locations keyed by the raw query string.
// Backends derive their own key from raw; lookups are exact-key only.
type LocationCache interface {
	// Get returns nil when the entry is absent, expired or unreadable.
	Get(ctx context.Context, raw string) (*domain.LocationRecord, error)
	Set(ctx context.Context, raw string, rec domain.LocationRecord) error
	Invalidate(ctx context.Context, raw string) (bool, error)
	Clear(ctx context.Context) (int, error)
	CleanExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// GeocodingProvider searches a place-name index.
type GeocodingProvider interface {
	Search(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error)
}

// WeatherProvider fetches forecasts for a coordinate.
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64, timezone string) (*domain.Forecast, error)
}

// TokenValidator asks an identity provider whether a bearer token is valid.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.TokenValidation, error)
}

// EventPublisher broadcasts location events to other services.
type EventPublisher interface {
	PublishResolved(ctx context.Context, event *domain.ResolvedEvent) error
	PublishInvalidation(ctx context.Context, event *domain.InvalidationEvent) error
}

// EventSubscriber receives location events published by peers.
type EventSubscriber interface {
	SubscribeInvalidations(ctx context.Context, handler func(ctx context.Context, event *domain.InvalidationEvent) error) error
}
