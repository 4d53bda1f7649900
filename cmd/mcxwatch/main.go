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
	"github.com/use-agent/mcxwatch/api"
	"github.com/use-agent/mcxwatch/config"
	"github.com/use-agent/mcxwatch/history"
	"github.com/use-agent/mcxwatch/pipeline"
	"github.com/use-agent/mcxwatch/publisher"
	"github.com/use-agent/mcxwatch/refresh"
	"github.com/use-agent/mcxwatch/renderer"
	"github.com/use-agent/mcxwatch/state"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, _ := time.LoadLocation(cfg.Scraper.Location)

	// ── 3. Compute contract months once ─────────────────────────────
	targets := pipeline.ContractMonths(time.Now().In(loc), cfg.Scraper.ContractMonths)
	labels := pipeline.Labels(targets)
	slog.Info("mcxwatch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"target", cfg.Scraper.TargetURL,
		"contracts", labels,
		"interval", cfg.Scraper.Interval,
	)

	// ── 4. Renderer and extraction pipeline ─────────────────────────
	rend := renderer.New(cfg.Browser, cfg.Scraper.NavigationTimeout)
	slog.Info("browser strategies", "order", rend.StrategyNames())

	pl := pipeline.New(
		pipeline.RendererFunc(func(ctx context.Context, url string) (pipeline.Page, error) {
			s, err := rend.Render(ctx, url)
			if err != nil {
				return nil, err
			}
			return s, nil
		}),
		targets,
		pipeline.Options{
			URL:            cfg.Scraper.TargetURL,
			LocatorTimeout: cfg.Scraper.LocatorTimeout,
			RateTimeout:    cfg.Scraper.RateTimeout,
			SettleDelay:    cfg.Scraper.SettleDelay,
			Location:       loc,
		},
	)

	// ── 5. Shared state, history, publishers ────────────────────────
	store := state.New()
	hist := history.New(cfg.History.Path, labels)
	pubs := newPublishers(cfg.Publish)
	defer pubs.Close()

	svc := refresh.NewService(pl, store, hist, pubs, cfg.Scraper.Interval)

	// ── 6. Refresh loop ─────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- svc.Run(ctx) }()

	// ── 7. HTTP server ──────────────────────────────────────────────
	router := api.NewRouter(ctx, cfg, svc, store, hist, time.Now())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-loopDone:
		if err != nil {
			slog.Error("refresh loop stopped", "error", err)
			exitCode = 1
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("mcxwatch stopped")
	if exitCode != 0 {
		pubs.Close()
		os.Exit(exitCode)
	}
}

// newPublishers builds the configured snapshot sinks.
func newPublishers(cfg config.PublishConfig) publisher.Multi {
	var pubs publisher.Multi
	if cfg.RedisAddr != "" {
		pubs = append(pubs, publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisMaxLength))
		slog.Info("redis publisher enabled", "addr", cfg.RedisAddr, "stream", cfg.RedisStream)
	}
	if cfg.WebhookURL != "" {
		pubs = append(pubs, publisher.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret))
		slog.Info("webhook publisher enabled", "url", cfg.WebhookURL)
	}
	return pubs
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
