package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/meteomcp/internal/app"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
	"github.com/samirrijal/meteomcp/internal/workflows"
)

const workflowID = "location-cache-maintenance"

func main() {
	var start bool
	flags := pflag.NewFlagSet("janitor", pflag.ExitOnError)
	flags.BoolVar(&start, "start", false, "start the maintenance workflow if it is not already running")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load("meteomcp-janitor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// The janitor has nothing to do without a cache, so fail hard here.
	backend, err := app.OpenCache(ctx, cfg, "")
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer backend.Close()
	if backend.Cache == nil {
		log.Fatal("cache.backend is none, nothing to maintain")
	}

	svc := app.NewServices(cfg, backend, nil, uuid.NewString())

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.CacheMaintenanceWorkflow)
	w.RegisterActivity(&workflows.MaintenanceActivities{Cache: svc.Cache})

	if start {
		// An already running execution is returned rather than duplicated.
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.CacheMaintenanceWorkflow, workflows.MaintenanceInput{
			Interval: cfg.Temporal.JanitorInterval,
		})
		if err != nil {
			log.Fatalf("start workflow: %v", err)
		}
		slog.Info("maintenance workflow running", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	}

	slog.Info("janitor worker started",
		"task_queue", cfg.Temporal.TaskQueue,
		"backend", backend.Name,
		"interval", cfg.Temporal.JanitorInterval,
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
