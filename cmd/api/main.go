package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteomcp/internal/adapters/http"
	mcpadapter "github.com/samirrijal/meteomcp/internal/adapters/mcp"
	natsadapter "github.com/samirrijal/meteomcp/internal/adapters/nats"
	"github.com/samirrijal/meteomcp/internal/app"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
	"github.com/samirrijal/meteomcp/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("meteomcp-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Location cache
	backend := app.OpenCacheOrNone(ctx, cfg)
	defer backend.Close()

	// NATS
	origin := uuid.NewString()
	var (
		events   ports.EventPublisher
		natsConn *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			natsConn = pub.Conn()
		}
	}

	svc := app.NewServices(cfg, backend, events, origin)

	// Peer invalidations
	if natsConn != nil {
		sub := natsadapter.NewSubscriber(natsConn)
		defer sub.Close()
		if err := app.SubscribePeers(ctx, sub, svc.Cache); err != nil {
			slog.Warn("peer invalidations disabled", "error", err)
		}
	}

	if !cfg.Server.AuthEnabled {
		slog.Warn("authentication disabled, every endpoint is public")
	}

	mcpServer := mcpadapter.New(app.Version, svc.Geocoding, svc.Weather, svc.Cache)

	deps := &http.Dependencies{
		Geocoding:   svc.Geocoding,
		Weather:     svc.Weather,
		Cache:       svc.Cache,
		Auth:        svc.Auth,
		MCP:         mcpServer.Handler(),
		NATS:        natsConn,
		DB:          backend.DB,
		Valkey:      backend.Valkey,
		AuthEnabled: cfg.Server.AuthEnabled,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     app.Version,
	}

	// Fiber
	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "meteomcp " + app.Version,
	})

	http.SetupRoutes(fiberApp, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "cache_backend", backend.Name)
		if err := fiberApp.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
