// Command conceptmap-server serves article records and concept maps, ingesting
// articles from the content provider on first request.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/conceptmap/internal/api"
	"github.com/persistorai/conceptmap/internal/config"
	"github.com/persistorai/conceptmap/internal/content"
	"github.com/persistorai/conceptmap/internal/db"
	"github.com/persistorai/conceptmap/internal/db/migrations"
	"github.com/persistorai/conceptmap/internal/dbpool"
	"github.com/persistorai/conceptmap/internal/extraction"
	"github.com/persistorai/conceptmap/internal/service"
	"github.com/persistorai/conceptmap/internal/store"
	"github.com/persistorai/conceptmap/internal/ws"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	hub := ws.NewHub(log)
	router := api.NewRouter(ctx, buildDeps(cfg, pool, hub, log))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// A cache miss waits on several upstream calls.
		WriteTimeout: 2*cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	metricsSrv := newMetricsServer(cfg.MetricsAddr())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "version": config.Version}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", metricsSrv.Addr).Info("metrics server starting")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		reportPoolStats(gctx, pool, 15*time.Second)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped")

	return nil
}

// buildDeps wires stores, upstream clients and services into router dependencies.
func buildDeps(cfg *config.Config, pool *dbpool.Pool, hub *ws.Hub, log *logrus.Logger) *api.RouterDeps {
	base := store.Base{Pool: pool, Log: log}
	articles := store.NewArticleStore(base)

	provider := content.NewClient(content.Config{
		BaseURL:    cfg.ContentAPIURL,
		Host:       cfg.ContentAPIHost,
		APIKey:     cfg.ContentAPIKey.Value(),
		Timeout:    cfg.UpstreamTimeout,
		MaxRetries: cfg.UpstreamMaxRetries,
	}, log)

	chat := extraction.NewOpenAIClient(extraction.ChatConfig{
		BaseURL:    cfg.ExtractionAPIURL,
		APIKey:     cfg.ExtractionAPIKey.Value(),
		Model:      cfg.ExtractionModel,
		Timeout:    cfg.UpstreamTimeout,
		MaxRetries: cfg.UpstreamMaxRetries,
	})

	pipeline := service.NewPipeline(
		articles,
		provider,
		extraction.NewExtractor(chat, log),
		store.NewGraphStore(base),
		log,
	)
	pipeline.SetPublisher(hub)

	return &api.RouterDeps{
		Log: log,
		DB:  pool,
		AppliedVersion: func(ctx context.Context) (int64, error) {
			return db.AppliedVersion(ctx, pool)
		},
		SchemaVersion: int64(db.SchemaVersion()),
		Articles:      service.NewArticleService(pipeline, articles),
		Concepts:      service.NewConceptService(store.NewConceptStore(base)),
		Stats:         store.NewStatsStore(base),
		Hub:           hub,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
	}
}
