// Command migrate runs schema operations for the forum database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	recount := flag.Bool("recount", false, "Rebuild post vote counters from the vote tables after migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg.Env)

	// Connect only auto-migrates outside production, so always migrate here.
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Println("automigrations applied")

	if *recount {
		touched, err := database.RecountVotes(context.Background(), db)
		if err != nil {
			return err
		}
		log.Printf("vote counters rebuilt for %d posts", touched)
	}
	return nil
}
