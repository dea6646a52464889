package http

import (
	stdhttp "net/http"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteomcp/internal/adapters/postgres"
	"github.com/samirrijal/meteomcp/internal/adapters/valkey"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Geocoding *usecases.GeocodingService
	Weather   *usecases.WeatherService
	Cache     *usecases.CacheService
	Auth      *usecases.AuthService

	// MCP serves the MCP streamable HTTP transport at /mcp when set.
	MCP stdhttp.Handler

	NATS   *nats.Conn
	DB     *postgres.DB
	Valkey *valkey.Client

	AuthEnabled bool
	CORSOrigins string
	Version     string
}
