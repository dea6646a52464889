// Package openmeteo is a client for the Open-Meteo geocoding and forecast APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
	"github.com/samirrijal/meteomcp/internal/pkg/metrics"
	"github.com/samirrijal/meteomcp/internal/pkg/telemetry"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultWeatherURL   = "https://api.open-meteo.com/v1/forecast"

	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m,wind_direction_10m"
	hourlyFields  = "temperature_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m"
)

var tracer = otel.Tracer("github.com/samirrijal/meteomcp/internal/adapters/openmeteo")

// Options configures a Client. Zero values take the defaults.
type Options struct {
	GeocodingURL   string
	WeatherURL     string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	RatePerSecond  float64
	Burst          int
	UserAgent      string
}

// Client implements ports.GeocodingProvider and ports.WeatherProvider.
// Requests are not retried.
type Client struct {
	http         *resty.Client
	geocodingURL string
	weatherURL   string
	limiter      *rate.Limiter
}

// New creates a new Client.
func New(opts Options) *Client {
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = DefaultGeocodingURL
	}
	if opts.WeatherURL == "" {
		opts.WeatherURL = DefaultWeatherURL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "meteomcp/2.0"
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:         client,
		geocodingURL: opts.GeocodingURL,
		weatherURL:   opts.WeatherURL,
		limiter:      rate.NewLimiter(limit, burst),
	}
}

// get performs a rate-limited GET and returns the body of a 200 response.
// Transport failures wrap domain.ErrServiceUnavailable; other statuses are
// returned as *domain.UpstreamError.
func (c *Client) get(ctx context.Context, service, url string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w: %w", service, domain.ErrServiceUnavailable, err)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	metrics.ProviderDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderResponses.WithLabelValues(service, "error").Inc()
		logging.FromContext(ctx).Error("provider request failed", "provider", service, "error", err)
		return nil, fmt.Errorf("%s request: %w: %w", service, domain.ErrServiceUnavailable, err)
	}

	status := resp.StatusCode()
	metrics.ProviderResponses.WithLabelValues(service, strconv.Itoa(status)).Inc()

	if status != http.StatusOK {
		body := resp.String()
		logging.FromContext(ctx).Error("provider returned error status",
			"provider", service,
			"status", status,
			"body", domain.Truncate(body, 200),
		)
		return nil, &domain.UpstreamError{
			Service:    service,
			StatusCode: status,
			Body:       domain.Truncate(body, 100),
		}
	}
	return resp.Body(), nil
}

type searchResponse struct {
	Results []domain.GeocodeCandidate `json:"results"`
}

// Search looks up name and returns up to count candidates in provider
// order. No match is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, name string, count int) ([]domain.GeocodeCandidate, error) {
	ctx, span := tracer.Start(ctx, "openmeteo.Search")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrGeocodingName, name), attribute.Int(telemetry.AttrGeocodingCount, count))

	body, err := c.get(ctx, "Geocoding", c.geocodingURL, map[string]string{
		"name":     name,
		"count":    strconv.Itoa(count),
		"language": "en",
		"format":   "json",
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrGeocodingResults, len(out.Results)))
	return out.Results, nil
}

// Forecast fetches current conditions and a one-day hourly forecast in
// metric units.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, timezone string) (*domain.Forecast, error) {
	ctx, span := tracer.Start(ctx, "openmeteo.Forecast")
	defer span.End()

	if timezone == "" {
		timezone = domain.DefaultTimezone
	}
	body, err := c.get(ctx, "Weather", c.weatherURL, map[string]string{
		"latitude":           strconv.FormatFloat(lat, 'f', -1, 64),
		"longitude":          strconv.FormatFloat(lon, 'f', -1, 64),
		"current":            currentFields,
		"hourly":             hourlyFields,
		"temperature_unit":   "celsius",
		"wind_speed_unit":    "kmh",
		"precipitation_unit": "mm",
		"timezone":           timezone,
		"forecast_days":      "1",
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var f domain.Forecast
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return &f, nil
}
