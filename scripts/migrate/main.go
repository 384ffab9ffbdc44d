// Package main applies the embedded schema migrations to a database and
// prints a report of the schema state and graph size.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/migrate
//	DRY_RUN=1 DATABASE_URL=postgres://... go run ./scripts/migrate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/db"
	"github.com/persistorai/conceptmap/internal/db/migrations"
	"github.com/persistorai/conceptmap/internal/dbpool"
	"github.com/persistorai/conceptmap/internal/store"
)

// config holds environment-driven migration settings.
type config struct {
	DatabaseURL string
	DryRun      bool
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"target":  sanitizeURL(cfg.DatabaseURL),
		"dry_run": cfg.DryRun,
	}).Info("starting migration")

	start := time.Now()
	r, err := runMigration(ctx, cfg, log)
	r.Duration = time.Since(start)
	r.Err = err

	printReport(os.Stdout, &r)

	if err != nil {
		stop()
		log.WithError(err).Fatal("migration failed")
	}
}

// loadConfig reads configuration from environment variables.
func loadConfig() config {
	return config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DryRun:      os.Getenv("DRY_RUN") == "true" || os.Getenv("DRY_RUN") == "1",
	}
}

// runMigration reports pending migrations, applies them unless this is a dry
// run, then counts what the graph holds.
func runMigration(ctx context.Context, cfg config, log *logrus.Logger) (report, error) {
	r := report{
		Target:   sanitizeURL(cfg.DatabaseURL),
		DryRun:   cfg.DryRun,
		Embedded: db.SchemaVersion(),
	}

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return r, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	before, err := db.Status(ctx, pool, migrations.FS)
	if err != nil {
		return r, err
	}

	r.Pending = pendingFiles(before)
	log.WithField("pending", len(r.Pending)).Info("read migration status")

	if cfg.DryRun {
		log.Info("dry run, skipping schema changes")

		return r, nil
	}

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return r, err
	}

	r.Applied = r.Pending
	r.Pending = nil

	version, err := db.AppliedVersion(ctx, pool)
	if err != nil {
		return r, err
	}
	r.Version = version

	stats, err := store.NewStatsStore(store.Base{Pool: pool, Log: log}).GraphStats(ctx)
	if err != nil {
		return r, fmt.Errorf("counting graph: %w", err)
	}
	r.Stats = stats

	return r, nil
}

// pendingFiles returns the files of migrations not yet applied.
func pendingFiles(states []db.MigrationState) []string {
	var out []string

	for _, st := range states {
		if !st.Applied {
			out = append(out, st.File)
		}
	}

	return out
}
