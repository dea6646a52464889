package domain

import "time"

// DefaultTimezone is stored when the provider omits a timezone; the forecast
// API resolves it from the coordinates.
const DefaultTimezone = "auto"

// GeoPoint is a WGS 84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParsedLocation is a free-form location query split into its parts.
// State and Country are empty when the query did not carry them.
type ParsedLocation struct {
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// HasState reports whether a state segment was recognised.
func (p ParsedLocation) HasState() bool { return p.State != "" }

// HasCountry reports whether a country segment was recognised.
func (p ParsedLocation) HasCountry() bool { return p.Country != "" }

// Qualified reports whether the query carries more than a bare city name.
func (p ParsedLocation) Qualified() bool { return p.HasState() || p.HasCountry() }

// GeocodeCandidate is one place returned by the geocoding provider.
type GeocodeCandidate struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Admin1    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// LocationRecord is a resolved location as returned to callers and persisted
// by every cache backend.
type LocationRecord struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Timezone  string    `json:"timezone"`
	CachedAt  time.Time `json:"cached_at"`
}

// RecordFromCandidate builds the record stored for a selected candidate.
func RecordFromCandidate(c GeocodeCandidate, now time.Time) LocationRecord {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return LocationRecord{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Name:      c.Name,
		Country:   c.Country,
		Timezone:  tz,
		CachedAt:  now,
	}
}

// Expired reports whether the record is older than maxAge at now.
func (r LocationRecord) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.CachedAt) > maxAge
}

// Point returns the record's coordinates.
func (r LocationRecord) Point() GeoPoint {
	return GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Canonical returns the serialisable form used by remote cache backends.
func (r LocationRecord) Canonical() any {
	r.CachedAt = r.CachedAt.UTC().Round(0)
	if r.Timezone == "" {
		r.Timezone = DefaultTimezone
	}
	return r
}

// CacheStats summarises a cache backend's contents.
type CacheStats struct {
	Backend    string `json:"backend"`
	Total      int    `json:"total_entries"`
	Expired    int    `json:"expired_entries"`
	Valid      int    `json:"valid_entries"`
	ExpiryDays int    `json:"expiry_days"`
	Location   string `json:"location"`
}
