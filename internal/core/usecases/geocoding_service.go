package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/location"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/geospatial"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
	"github.com/samirrijal/meteomcp/internal/pkg/metrics"
	"github.com/samirrijal/meteomcp/internal/pkg/telemetry"
)

const (
	maxLocationLength  = 100
	defaultResultCount = 10
)

var tracer = otel.Tracer("github.com/samirrijal/meteomcp/internal/core/usecases")

// GeocodingService resolves free-form location strings to coordinates,
// reading through the location cache.
type GeocodingService struct {
	provider    ports.GeocodingProvider
	cache       ports.LocationCache
	events      ports.EventPublisher
	backend     string
	resultCount int
	now         func() time.Time
}

// GeocodingOption configures a GeocodingService.
type GeocodingOption func(*GeocodingService)

// WithEvents publishes a ResolvedEvent after every provider lookup.
func WithEvents(p ports.EventPublisher) GeocodingOption {
	return func(s *GeocodingService) { s.events = p }
}

// WithCacheBackend sets the backend label used in metrics.
func WithCacheBackend(name string) GeocodingOption {
	return func(s *GeocodingService) { s.backend = name }
}

// WithResultCount sets how many candidates are requested from the provider.
func WithResultCount(n int) GeocodingOption {
	return func(s *GeocodingService) {
		if n > 0 {
			s.resultCount = n
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) GeocodingOption {
	return func(s *GeocodingService) { s.now = now }
}

// NewGeocodingService creates a new GeocodingService. cache may be nil, in
// which case every lookup goes to the provider.
func NewGeocodingService(provider ports.GeocodingProvider, cache ports.LocationCache, opts ...GeocodingOption) *GeocodingService {
	s := &GeocodingService{
		provider:    provider,
		cache:       cache,
		backend:     "none",
		resultCount: defaultResultCount,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateLocation trims raw and checks it is a usable query.
func ValidateLocation(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", domain.Detailf(domain.ErrInvalidInput, "Location cannot be empty")
	}
	if utf8.RuneCountInString(q) > maxLocationLength {
		return "", domain.Detailf(domain.ErrInvalidInput, "Location name too long (max %d characters)", maxLocationLength)
	}
	return q, nil
}

// Resolve returns the coordinates for raw. A cached record for the exact
// query is returned without contacting the provider; otherwise the provider
// is searched by city name, the best candidate selected, and the result
// cached under the full query.
func (s *GeocodingService) Resolve(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	query, err := ValidateLocation(raw)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "GeocodingService.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrLocationQuery, query))

	log := logging.FromContext(ctx).With("location", query)

	if rec := s.lookup(ctx, query); rec != nil {
		span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
		return rec, nil
	}

	parsed := location.Parse(query)
	log.Debug("geocoding location", "city", parsed.City, "state", parsed.State, "country", parsed.Country)

	candidates, err := s.provider.Search(ctx, parsed.City, s.resultCount)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	usable := make([]domain.GeocodeCandidate, 0, len(candidates))
	for _, c := range candidates {
		if geospatial.ValidCoordinates(c.Latitude, c.Longitude) {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return nil, domain.Detailf(domain.ErrNotFound, "Location '%s' not found", query)
	}

	chosen, rule := location.Select(parsed, usable)
	metrics.Resolutions.WithLabelValues(string(rule)).Inc()
	span.SetAttributes(attribute.String(telemetry.AttrGeocodingRule, string(rule)))
	log.Info("location resolved",
		"name", chosen.Name,
		"country", chosen.Country,
		"admin1", chosen.Admin1,
		"rule", rule,
	)

	rec := domain.RecordFromCandidate(chosen, s.now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, rec); err != nil {
			metrics.CacheErrors.WithLabelValues(s.backend, "set").Inc()
			log.Warn("location cache write failed", "error", err)
		}
	}

	s.publishResolved(ctx, query, rec, rule)

	return &rec, nil
}

// lookup consults the cache, treating every failure as a miss.
func (s *GeocodingService) lookup(ctx context.Context, query string) *domain.LocationRecord {
	if s.cache == nil {
		return nil
	}

	rec, err := s.cache.Get(ctx, query)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(s.backend, "get").Inc()
		logging.FromContext(ctx).Warn("location cache read failed", "location", query, "error", err)
		rec = nil
	}
	if rec == nil {
		metrics.CacheMisses.WithLabelValues(s.backend).Inc()
		return nil
	}

	metrics.CacheHits.WithLabelValues(s.backend).Inc()
	logging.FromContext(ctx).Debug("location cache hit", "location", query, "name", rec.Name)
	return rec
}

func (s *GeocodingService) publishResolved(ctx context.Context, query string, rec domain.LocationRecord, rule domain.ResolutionRule) {
	if s.events == nil {
		return
	}
	event := &domain.ResolvedEvent{
		ID:         uuid.NewString(),
		Query:      query,
		Key:        location.CacheKey(query),
		Record:     rec,
		Rule:       rule,
		ResolvedAt: s.now(),
	}
	if err := s.events.PublishResolved(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish resolved event", "location", query, "error", err)
	}
}
