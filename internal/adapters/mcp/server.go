// Package mcpadapter exposes the location and weather operations as MCP tools.
package mcpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

const serverName = "meteomcp"

// Geocoder resolves a free-form location string.
type Geocoder interface {
	Resolve(ctx context.Context, raw string) (*domain.LocationRecord, error)
}

// Forecaster builds a weather report for a location string.
type Forecaster interface {
	Get(ctx context.Context, raw string) (*domain.WeatherReport, error)
}

// CacheInspector reports on the location cache.
type CacheInspector interface {
	Enabled() bool
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// LocationInput is the argument of the location-based tools.
type LocationInput struct {
	Location string `json:"location" jsonschema:"place name, optionally qualified: 'City', 'City, ST' or 'City, State, Country'"`
}

// GeocodeOutput is the result of geocode_location.
type GeocodeOutput struct {
	Query     string  `json:"query"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	CachedAt  string  `json:"cached_at"`
}

// CacheStatsInput takes no arguments.
type CacheStatsInput struct{}

// CacheStatsOutput is the result of cache_stats.
type CacheStatsOutput struct {
	Enabled bool               `json:"enabled"`
	Stats   *domain.CacheStats `json:"stats,omitempty"`
}

// Server wraps an mcp.Server with the meteomcp tools registered.
type Server struct {
	server    *mcp.Server
	geocoding Geocoder
	weather   Forecaster
	cache     CacheInspector
}

// New registers the tools and returns the server. cache may be nil.
func New(version string, geocoding Geocoder, weather Forecaster, cache CacheInspector) *Server {
	s := &Server{
		server:    mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		geocoding: geocoding,
		weather:   weather,
		cache:     cache,
	}

	mcp.AddTool(s.server,
		&mcp.Tool{
			Name:        "geocode_location",
			Description: "Resolve a location name to coordinates, country and timezone. Accepts 'City', 'City, ST' (US state) or 'City, State, Country'.",
		},
		s.geocodeLocation,
	)
	mcp.AddTool(s.server,
		&mcp.Tool{
			Name:        "get_hourly_weather",
			Description: "Get current conditions and the next 12 hours of forecast for a location.",
		},
		s.hourlyWeather,
	)
	mcp.AddTool(s.server,
		&mcp.Tool{
			Name:        "cache_stats",
			Description: "Report entry counts for the location cache.",
		},
		s.cacheStats,
	)
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcp.Server { return s.server }

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// ServeStdio serves a single session over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) geocodeLocation(ctx context.Context, _ *mcp.CallToolRequest, in LocationInput) (*mcp.CallToolResult, GeocodeOutput, error) {
	log := logging.FromContext(ctx).With("tool", "geocode_location", "location", in.Location)
	rec, err := s.geocoding.Resolve(ctx, in.Location)
	if err != nil {
		log.Warn("tool failed", "error", err)
		return nil, GeocodeOutput{}, err
	}
	log.Debug("tool completed", "name", rec.Name)
	return nil, GeocodeOutput{
		Query:     in.Location,
		Name:      rec.Name,
		Country:   rec.Country,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Timezone:  rec.Timezone,
		CachedAt:  rec.CachedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *Server) hourlyWeather(ctx context.Context, _ *mcp.CallToolRequest, in LocationInput) (*mcp.CallToolResult, domain.WeatherReport, error) {
	log := logging.FromContext(ctx).With("tool", "get_hourly_weather", "location", in.Location)
	report, err := s.weather.Get(ctx, in.Location)
	if err != nil {
		log.Warn("tool failed", "error", err)
		return nil, domain.WeatherReport{}, err
	}
	return nil, *report, nil
}

func (s *Server) cacheStats(ctx context.Context, _ *mcp.CallToolRequest, _ CacheStatsInput) (*mcp.CallToolResult, CacheStatsOutput, error) {
	if s.cache == nil || !s.cache.Enabled() {
		return nil, CacheStatsOutput{Enabled: false}, nil
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return nil, CacheStatsOutput{}, err
	}
	return nil, CacheStatsOutput{Enabled: true, Stats: &stats}, nil
}
