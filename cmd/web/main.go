package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db/dbopen"
	"github.com/jusunglee/uzscript/internal/health"
	"github.com/jusunglee/uzscript/internal/logger"
	"github.com/jusunglee/uzscript/internal/metrics"
	"github.com/jusunglee/uzscript/internal/web"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
	slog.Info("exiting without error")
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("uzscript-web")

	var (
		port           = fs.Int64Long("port", 3000, "HTTP server port")
		databaseURL    = fs.StringLong("database-url", "sqlite://uzscript.db", "PostgreSQL URL or SQLite path")
		allowedOrigins = fs.StringLong("allowed-origins", "", "Comma-separated list of allowed CORS origins")
		adminPassword  = fs.StringLong("admin-password", "", "Password for the admin feedback listing (disabled when empty)")
		rateLimit      = fs.IntLong("rate-limit", 60, "POST requests allowed per IP per minute")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *databaseURL == "" {
		return errors.New("database-url is required")
	}

	log := logger.New()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	repo, err := dbopen.Open(ctx, *databaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()
	log.InfoContext(ctx, "connected to database", "kind", dbopen.Kind(*databaseURL))

	if ps, ok := repo.(metrics.PoolStatser); ok {
		go metrics.ExportPoolStats(ctx, ps, 15*time.Second)
	}

	origins := lo.Compact(lo.Map(strings.Split(*allowedOrigins, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))

	converter := conversion.NewConverter(repo, log)
	router := web.NewRouter(repo, converter, log, web.Config{
		AllowedOrigins: origins,
		AdminPassword:  *adminPassword,
		RateLimit:      *rateLimit,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("GET /health", health.New(0, map[string]health.Pinger{"database": repo}))
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.InfoContext(ctx, "received signal, shutting down gracefully", "signal", sig)
		cancel(errors.New("signal received"))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "server shutdown error", "error", err)
		}
	}()

	log.InfoContext(ctx, "starting web server", "port", *port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
