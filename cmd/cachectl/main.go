// cachectl inspects and maintains the location cache from the command line.
//
//	cachectl [--backend file|valkey|postgres] [--config path] <command> [location]
//
// Commands: stats, clean, clear, get, invalidate, parse.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	natsadapter "github.com/samirrijal/meteomcp/internal/adapters/nats"
	"github.com/samirrijal/meteomcp/internal/app"
	"github.com/samirrijal/meteomcp/internal/core/location"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/core/usecases"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

var errUsage = errors.New("usage: cachectl [flags] <stats|clean|clear|get|invalidate|parse> [location]")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var backendName, configPath, logLevel string

	flagSet := pflag.NewFlagSet("cachectl", pflag.ContinueOnError)
	flagSet.StringVar(&backendName, "backend", "", "cache backend (default: cache.backend from config)")
	flagSet.StringVar(&configPath, "config", "", "path to a config file")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	args := flagSet.Args()
	if len(args) == 0 {
		return errUsage
	}

	logging.SetupWriter(os.Stderr, logLevel, "text")

	// parse needs no backend
	if args[0] == "parse" {
		return execute(context.Background(), nil, args, os.Stdout)
	}

	cfg, err := config.LoadFile("meteomcp-cachectl", configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenCache(ctx, cfg, strings.ToLower(backendName))
	if err != nil {
		return err
	}
	defer backend.Close()

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer pub.Close()
		events = pub
	}

	svc := app.NewServices(cfg, backend, events, "cachectl-"+uuid.NewString())
	return execute(ctx, svc.Cache, args, os.Stdout)
}

// execute runs one command and writes its JSON result to w.
func execute(ctx context.Context, cache *usecases.CacheService, args []string, w io.Writer) error {
	cmd, rest := args[0], args[1:]
	arg := strings.Join(rest, " ")

	needsLocation := map[string]bool{"get": true, "invalidate": true, "parse": true}
	if needsLocation[cmd] && strings.TrimSpace(arg) == "" {
		return fmt.Errorf("%s: location argument required", cmd)
	}

	var out any
	switch cmd {
	case "parse":
		parsed := location.Parse(arg)
		res := map[string]any{
			"parsed":    parsed,
			"cache_key": location.CacheKey(arg),
		}
		if name, ok := location.StateName(parsed.State); ok {
			res["state_name"] = name
		}
		out = res
	case "stats":
		stats, err := cache.Stats(ctx)
		if err != nil {
			return err
		}
		out = stats
	case "clean":
		n, err := cache.CleanExpired(ctx)
		if err != nil {
			return err
		}
		out = map[string]int{"removed": n}
	case "clear":
		n, err := cache.Clear(ctx)
		if err != nil {
			return err
		}
		out = map[string]int{"removed": n}
	case "get":
		rec, err := cache.Lookup(ctx, arg)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no live cache entry for '%s'", arg)
		}
		out = rec
	case "invalidate":
		removed, err := cache.Invalidate(ctx, arg)
		if err != nil {
			return err
		}
		out = map[string]any{"location": arg, "removed": removed}
	default:
		return errUsage
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
