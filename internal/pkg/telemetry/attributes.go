package telemetry

// Span attribute keys shared by the services and provider adapters.
const (
	// Query
	AttrLocationQuery = "location.query"
	AttrLocationName  = "location.name"

	// Cache
	AttrCacheHit = "cache.hit"

	// Geocoding
	AttrGeocodingName    = "geocoding.name"
	AttrGeocodingCount   = "geocoding.count"
	AttrGeocodingResults = "geocoding.results"
	AttrGeocodingRule    = "geocoding.rule"
)
