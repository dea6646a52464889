package http_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/meteomcp/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/",
		"/v1/health",
		"/v1/ready",
		"/v1/geocoding",
		"/v1/weather",
		"/v1/cache/stats",
		"/v1/cache/clean",
		"/v1/cache",
		"/v1/cache/entry",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	geocoding := spec.Paths.Find("/v1/geocoding")
	if geocoding != nil && (geocoding.Get == nil || geocoding.Post == nil) {
		t.Error("expected GET and POST on /v1/geocoding")
	}

	expectedSchemas := []string{
		"Error",
		"GeocodingRequest",
		"GeocodingResponse",
		"WeatherReport",
		"CacheStats",
		"Coordinates",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "Weather MCP Server API" {
		t.Errorf("unexpected title %q", spec.Info.Title)
	}
	if spec.Info.Version != "2.0.0" {
		t.Errorf("expected version 2.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
	if spec.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Error("expected bearerAuth security scheme")
	}
}
