package usecases

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/telemetry"
)

const (
	hourlyEntries = 12
	dataSource    = "Open-Meteo API (https://open-meteo.com)"
)

var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WeatherService resolves a location and fetches its forecast.
type WeatherService struct {
	geocoding *GeocodingService
	provider  ports.WeatherProvider
}

// NewWeatherService creates a new WeatherService.
func NewWeatherService(geocoding *GeocodingService, provider ports.WeatherProvider) *WeatherService {
	return &WeatherService{geocoding: geocoding, provider: provider}
}

// Get returns current conditions and the next hours of forecast for raw.
func (s *WeatherService) Get(ctx context.Context, raw string) (*domain.WeatherReport, error) {
	ctx, span := tracer.Start(ctx, "WeatherService.Get")
	defer span.End()

	rec, err := s.geocoding.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrLocationName, rec.Name))

	forecast, err := s.provider.Forecast(ctx, rec.Latitude, rec.Longitude, rec.Timezone)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("forecast for %s: %w", rec.Name, err)
	}

	return buildReport(rec, forecast), nil
}

func buildReport(rec *domain.LocationRecord, f *domain.Forecast) *domain.WeatherReport {
	tz := f.Timezone
	if tz == "" {
		tz = rec.Timezone
	}

	cur := f.Current
	report := &domain.WeatherReport{
		Location:    rec.Name,
		Country:     rec.Country,
		Coordinates: rec.Point(),
		Timezone:    tz,
		Current: domain.CurrentConditions{
			Time:               cur.Time,
			Temperature:        domain.Measurement{Value: cur.Temperature, Unit: "°C"},
			FeelsLike:          domain.Measurement{Value: cur.ApparentTemperature, Unit: "°C"},
			Humidity:           domain.Measurement{Value: cur.RelativeHumidity, Unit: "%"},
			Precipitation:      domain.Measurement{Value: cur.Precipitation, Unit: "mm"},
			WeatherCode:        cur.WeatherCode,
			WeatherDescription: DescribeWeatherCode(cur.WeatherCode),
			Wind: domain.Wind{
				Speed:     cur.WindSpeed,
				Direction: cur.WindDirection,
				Compass:   CompassDirection(cur.WindDirection),
				Unit:      "km/h",
			},
		},
		DataSource: dataSource,
	}

	h := f.Hourly
	n := min(len(h.Time), hourlyEntries)
	report.HourlyForecast = make([]domain.HourlyEntry, 0, n)
	for i := 0; i < n; i++ {
		code := at(h.WeatherCode, i)
		report.HourlyForecast = append(report.HourlyForecast, domain.HourlyEntry{
			Time:                     h.Time[i],
			Temperature:              at(h.Temperature, i),
			PrecipitationProbability: at(h.PrecipitationProbability, i),
			Precipitation:            at(h.Precipitation, i),
			WeatherCode:              code,
			WeatherDescription:       DescribeWeatherCode(code),
			WindSpeed:                at(h.WindSpeed, i),
		})
	}

	return report
}

// at returns s[i], or nil when the series is shorter than the time axis.
func at[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}

// DescribeWeatherCode returns the WMO description for code.
func DescribeWeatherCode(code *int) string {
	if code == nil {
		return "Unknown"
	}
	if d, ok := weatherDescriptions[*code]; ok {
		return d
	}
	return fmt.Sprintf("Unknown (%d)", *code)
}

// CompassDirection converts degrees to a 16-point compass direction.
func CompassDirection(deg *float64) string {
	if deg == nil || math.IsNaN(*deg) || *deg < 0 || *deg > 360 {
		return "Unknown"
	}
	idx := int((*deg+11.25)/22.5) % 16
	return compassPoints[idx]
}
