package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/meteomcp/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, MCP and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  "GET,POST,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Mcp-Session-Id",
		ExposeHeaders: "Mcp-Session-Id",
	}))

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", deps.Version)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	if deps.AuthEnabled {
		app.Use(RequireAuth(deps))
	}

	// Public
	app.Get("/", ServiceInfoHandler(deps))
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))
	SetupDocs(app)

	// REST API v1
	v1 := app.Group("/v1")
	v1.Post("/geocoding", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))
	v1.Get("/geocoding", timeout.NewWithContext(GeocodeQueryHandler(deps), requestTimeout))
	v1.Get("/weather", timeout.NewWithContext(WeatherHandler(deps), requestTimeout))
	v1.Get("/cache/stats", timeout.NewWithContext(CacheStatsHandler(deps), requestTimeout))
	v1.Post("/cache/clean", timeout.NewWithContext(CacheCleanHandler(deps), requestTimeout))
	v1.Delete("/cache", timeout.NewWithContext(CacheClearHandler(deps), requestTimeout))
	v1.Delete("/cache/entry", timeout.NewWithContext(CacheInvalidateHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	// MCP streamable HTTP transport
	if deps.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(deps.MCP))
	}

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
