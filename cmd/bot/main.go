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

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/jusunglee/uzscript/internal/bot"
	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db/dbopen"
	"github.com/jusunglee/uzscript/internal/envsetup"
	"github.com/jusunglee/uzscript/internal/health"
	"github.com/jusunglee/uzscript/internal/logger"
	"github.com/jusunglee/uzscript/internal/metrics"
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
	if len(os.Args) == 1 && envsetup.NeedsSetup(".env") {
		saved, err := envsetup.Run(".env")
		if err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}
		if !saved {
			return errors.New("setup cancelled")
		}
	}
	_ = godotenv.Load()

	fs := ff.NewFlagSet("uzscript-bot")
	var (
		databaseURL  = fs.StringLong("database-url", "", "PostgreSQL URL or SQLite path")
		discordToken = fs.StringLong("discord-token", "", "Discord bot token")
		guildID      = fs.StringLong("discord-guild-id", "", "Register commands to this guild only (instant updates)")
		healthPort   = fs.IntLong("health-port", 8081, "Port for /health and /metrics")
		rateCommands = fs.IntLong("rate-limit-commands", bot.DefaultRateLimitCommands, "Commands allowed per user per window")
		rateWindow   = fs.DurationLong("rate-limit-window", bot.DefaultRateLimitWindow, "Rate limit window")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *databaseURL == "" {
		return errors.New("database-url is required")
	}
	if *discordToken == "" {
		return errors.New("discord-token is required")
	}

	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := dbopen.Open(ctx, *databaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()
	log.InfoContext(ctx, "connected to database", "kind", dbopen.Kind(*databaseURL))

	session, err := discordgo.New("Bot " + *discordToken)
	if err != nil {
		return fmt.Errorf("creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := bot.New(
		bot.NewLogger(log),
		bot.NewDiscordSession(session),
		conversion.NewConverter(repo, log),
		bot.NewRateLimiter(*rateCommands, *rateWindow),
		bot.Config{GuildID: *guildID},
	)

	healthServer := health.New(*healthPort, map[string]health.Pinger{"database": repo})
	healthServer.Mux().Handle("/metrics", promhttp.Handler())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, "starting health server", "port", *healthPort)
		return healthServer.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down health server: %w", err)
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
		return b.Run(ctx)
	})

	return g.Wait()
}
