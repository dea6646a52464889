package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// GeocodingRequest is the body of POST /v1/geocoding.
type GeocodingRequest struct {
	Location string `json:"location"`
}

// GeocodingResponse is the resolved location returned by the geocoding
// endpoints.
type GeocodingResponse struct {
	Location    string          `json:"location"`
	Country     string          `json:"country"`
	Coordinates domain.GeoPoint `json:"coordinates"`
	Timezone    string          `json:"timezone"`
}

func newGeocodingResponse(rec *domain.LocationRecord) GeocodingResponse {
	return GeocodingResponse{
		Location:    rec.Name,
		Country:     rec.Country,
		Coordinates: rec.Point(),
		Timezone:    rec.Timezone,
	}
}

// ServiceInfoHandler describes the service and its endpoints.
func ServiceInfoHandler(deps *Dependencies) fiber.Handler {
	auth := "none"
	if deps.AuthEnabled {
		auth = "Authentik Bearer token required"
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":           "Weather MCP Server",
			"version":        deps.Version,
			"authentication": auth,
			"api":            "Open-Meteo (https://open-meteo.com)",
			"endpoints": fiber.Map{
				"health":    "/v1/health (no auth)",
				"geocoding": "/v1/geocoding?location=<city>",
				"weather":   "/v1/weather?location=<city>",
				"cache":     "/v1/cache/stats",
				"graphql":   "/graphql",
				"docs":      "/docs",
				"mcp":       "/mcp (MCP protocol)",
			},
		})
	}
}

// GeocodeHandler resolves the location in the JSON body.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GeocodingRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		return geocode(c, deps, req.Location)
	}
}

// GeocodeQueryHandler resolves the location query parameter.
func GeocodeQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return geocode(c, deps, c.Query("location"))
	}
}

func geocode(c *fiber.Ctx, deps *Dependencies, location string) error {
	rec, err := deps.Geocoding.Resolve(c.UserContext(), location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newGeocodingResponse(rec))
}

// WeatherHandler returns current conditions and the hourly forecast.
func WeatherHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := deps.Weather.Get(c.UserContext(), c.Query("location"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(report)
	}
}

// CacheStatsHandler summarises the location cache.
func CacheStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Cache.Stats(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats)
	}
}

// CacheCleanHandler removes expired entries.
func CacheCleanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Cache.CleanExpired(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"removed": n})
	}
}

// CacheClearHandler removes every entry.
func CacheClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Cache.Clear(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		audit(c, "cache cleared", "removed", n)
		return c.JSON(fiber.Map{"removed": n})
	}
}

// CacheInvalidateHandler removes the entry for one location.
func CacheInvalidateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		location := c.Query("location")
		removed, err := deps.Cache.Invalidate(c.UserContext(), location)
		if err != nil {
			return respondError(c, err)
		}
		if !removed {
			return errNotFound(c, "no cache entry for '"+location+"'")
		}
		audit(c, "cache entry invalidated", "location", location)
		return c.JSON(fiber.Map{"removed": true, "location": location})
	}
}

// audit records destructive cache operations with the caller's identity.
func audit(c *fiber.Ctx, msg string, args ...any) {
	actor := "anonymous"
	if p := PrincipalFrom(c); p != nil {
		actor = p.Username
	}
	logging.FromContext(c.UserContext()).Info(msg, append(args, "actor", actor)...)
}
