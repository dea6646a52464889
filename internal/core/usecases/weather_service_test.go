package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
)

func TestWeatherService_Get(t *testing.T) {
	var gotLat, gotLon float64
	var gotTZ string
	weather := &mockWeather{
		forecastFn: func(ctx context.Context, lat, lon float64, tz string) (*domain.Forecast, error) {
			gotLat, gotLon, gotTZ = lat, lon, tz
			f := &domain.Forecast{
				Timezone: "America/Chicago",
				Current: domain.CurrentReadings{
					Time:          "2025-03-01T12:00",
					Temperature:   ptr(12.5),
					WeatherCode:   ptr(3),
					WindSpeed:     ptr(10.0),
					WindDirection: ptr(225.0),
				},
			}
			for i := 0; i < 24; i++ {
				f.Hourly.Time = append(f.Hourly.Time, "t")
				f.Hourly.Temperature = append(f.Hourly.Temperature, ptr(float64(i)))
			}
			f.Hourly.WeatherCode = []*int{ptr(61)}
			return f, nil
		},
	}
	geo := usecases.NewGeocodingService(springfieldProvider(), nil)
	svc := usecases.NewWeatherService(geo, weather)

	report, err := svc.Get(context.Background(), "Springfield, IL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLat != 39.80 || gotLon != -89.64 || gotTZ != "America/Chicago" {
		t.Errorf("unexpected forecast args: %v %v %s", gotLat, gotLon, gotTZ)
	}
	if report.Location != "Springfield" || report.Country != "United States" {
		t.Errorf("unexpected location: %s, %s", report.Location, report.Country)
	}
	if len(report.HourlyForecast) != 12 {
		t.Fatalf("expected 12 hourly entries, got %d", len(report.HourlyForecast))
	}
	if report.HourlyForecast[0].WeatherDescription != "Slight rain" {
		t.Errorf("expected Slight rain, got %s", report.HourlyForecast[0].WeatherDescription)
	}
	if report.HourlyForecast[1].WeatherCode != nil {
		t.Error("expected nil code past the end of a short series")
	}
	if report.Current.WeatherDescription != "Overcast" {
		t.Errorf("expected Overcast, got %s", report.Current.WeatherDescription)
	}
	if report.Current.Wind.Compass != "SW" {
		t.Errorf("expected SW, got %s", report.Current.Wind.Compass)
	}
	if report.DataSource != "Open-Meteo API (https://open-meteo.com)" {
		t.Errorf("unexpected data source: %s", report.DataSource)
	}
}

func TestWeatherService_Get_GeocodingErrorStopsEarly(t *testing.T) {
	called := false
	weather := &mockWeather{
		forecastFn: func(ctx context.Context, lat, lon float64, tz string) (*domain.Forecast, error) {
			called = true
			return nil, nil
		},
	}
	svc := usecases.NewWeatherService(usecases.NewGeocodingService(&mockProvider{}, nil), weather)

	_, err := svc.Get(context.Background(), "Atlantis")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Error("forecast must not be fetched for an unresolved location")
	}
}

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		deg  *float64
		want string
	}{
		{ptr(0.0), "N"},
		{ptr(11.24), "N"},
		{ptr(11.25), "NNE"},
		{ptr(90.0), "E"},
		{ptr(180.0), "S"},
		{ptr(348.75), "N"},
		{ptr(360.0), "N"},
		{ptr(-1.0), "Unknown"},
		{ptr(361.0), "Unknown"},
		{nil, "Unknown"},
	}
	for _, tt := range tests {
		if got := usecases.CompassDirection(tt.deg); got != tt.want {
			t.Errorf("CompassDirection(%v) = %s, want %s", tt.deg, got, tt.want)
		}
	}
}

func TestDescribeWeatherCode(t *testing.T) {
	if got := usecases.DescribeWeatherCode(ptr(0)); got != "Clear sky" {
		t.Errorf("expected Clear sky, got %s", got)
	}
	if got := usecases.DescribeWeatherCode(ptr(99)); got != "Thunderstorm with heavy hail" {
		t.Errorf("unexpected: %s", got)
	}
	if got := usecases.DescribeWeatherCode(ptr(42)); got != "Unknown (42)" {
		t.Errorf("expected Unknown (42), got %s", got)
	}
	if got := usecases.DescribeWeatherCode(nil); got != "Unknown" {
		t.Errorf("expected Unknown, got %s", got)
	}
}
