// mcp serves the weather tools over stdio for local MCP clients. Stdout
// carries the protocol, so logs go to stderr.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	mcpadapter "github.com/samirrijal/meteomcp/internal/adapters/mcp"
	"github.com/samirrijal/meteomcp/internal/app"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("meteomcp-mcp")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.SetupWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := app.OpenCacheOrNone(ctx, cfg)
	defer backend.Close()

	// Local stdio sessions skip NATS and bearer auth.
	svc := app.NewServices(cfg, backend, nil, uuid.NewString())

	server := mcpadapter.New(app.Version, svc.Geocoding, svc.Weather, svc.Cache)

	slog.Info("MCP stdio server starting", "cache_backend", backend.Name)
	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		slog.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
