package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/migrate"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: migrate [flags] <up|down|status|version|redo|reset|validate> [args]\n\n")
	flag.PrintDefaults()
}

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "Migration timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg := config.Load()
	log := logger.Setup(cfg.Env, os.Stderr)

	// validate needs no database
	if command == "validate" {
		if err := migrate.Validate(); err != nil {
			log.Error("Migrations are invalid", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("Migrations are valid")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Run(ctx, db.DB, command, flag.Args()[1:]...); err != nil {
		log.Error("Migration failed", slog.String("command", command), slog.String("error", err.Error()))
		os.Exit(1)
	}

	version, err := migrate.Version(db.DB)
	if err != nil {
		log.Warn("Could not read schema version", slog.String("error", err.Error()))
		return
	}
	log.Info("Migration finished", slog.String("command", command), slog.Int64("version", version))
}
