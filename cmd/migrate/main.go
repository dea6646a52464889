package main

import (
	"context"
	"log"
	"os"

	"github.com/samirrijal/meteomcp/internal/adapters/postgres"
	"github.com/samirrijal/meteomcp/internal/pkg/config"
	"github.com/samirrijal/meteomcp/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("meteomcp-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var steps []migrations.Migration
	switch os.Args[1] {
	case "up":
		steps, err = migrations.Up()
	case "down":
		steps, err = migrations.Down()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	n, err := db.Migrate(ctx, steps)
	for _, m := range steps[:n] {
		log.Printf("OK  %s %s", os.Args[1], m.Name)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%d migrations applied", n)
}
