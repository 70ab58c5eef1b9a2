package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/uzscript/internal/db/dbopen"
	"github.com/jusunglee/uzscript/internal/health"
	"github.com/jusunglee/uzscript/internal/logger"
	"github.com/jusunglee/uzscript/internal/metrics"
	"github.com/jusunglee/uzscript/internal/retention"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("uzscript-worker")
	var (
		databaseURL = fs.StringLong("database-url", "", "PostgreSQL URL or SQLite path")
		maxAge      = fs.DurationLong("retention", 30*24*time.Hour, "Delete conversions and feedback older than this")
		interval    = fs.DurationLong("interval", time.Hour, "Time between retention cycles")
		port        = fs.IntLong("port", 9090, "Port for /health and /metrics")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *databaseURL == "" {
		return errors.New("database-url is required")
	}
	if *maxAge <= 0 || *interval <= 0 {
		return errors.New("retention and interval must be positive")
	}

	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := dbopen.Open(ctx, *databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer repo.Close()

	healthServer := health.New(*port, map[string]health.Pinger{"database": repo})
	healthServer.Mux().Handle("/metrics", promhttp.Handler())

	cleaner := retention.NewCleaner(repo, log, *maxAge)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, "starting metrics server", "port", *port)
		return healthServer.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	})
	if ps, ok := repo.(metrics.PoolStatser); ok {
		g.Go(func() error {
			metrics.ExportPoolStats(ctx, ps, 15*time.Second)
			return nil
		})
	}
	g.Go(func() error {
		cleaner.Run(ctx, *interval)
		return nil
	})

	err = g.Wait()
	log.Info("worker stopped")
	return err
}
