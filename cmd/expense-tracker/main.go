package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/tracker"
)

const (
	viewCacheSize   = 128
	viewCacheTTL    = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, "info", os.Stdout)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger = cli.SetupLogger(applog.ComponentApp, cfg.LogLevel, os.Stdout)

	ctx, stop := cli.ShutdownContext(logger.Logger)
	defer stop()

	views := cache.NewLRU[string, []core.Expense](viewCacheSize, viewCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(views)

	env, err := cli.OpenEnvironment(ctx, logger.WithComponent(applog.ComponentTracker).Logger, cfg,
		tracker.WithViewCache(views))
	if err != nil {
		logger.Error("Failed to open storage backend", applog.FieldBackend, cfg.DataBackend, applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("Failed to close storage backend", applog.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Tracker:            env.Tracker,
		Currency:           core.GetCurrency(cfg.Currency),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              env.Backend.Ready,
		Logger:             logger.Logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"currency", cfg.Currency,
			"notifications", env.Backend.Notifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
