// Package cli holds the start-up steps shared by cmd/expense-tracker and
// cmd/expensectl, plus the command line output helpers.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/tracker"
)

// SetupLogger builds the process logger for component at the given level and
// installs it as the slog default.
func SetupLogger(component, level string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	cfg.Level = applog.ParseLevel(level)
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environment is an opened backend together with the tracker running on it.
type Environment struct {
	Config  *config.Config
	Backend *backend.BackendResult
	Tracker *tracker.Tracker
}

// Close releases backend resources.
func (e *Environment) Close() error {
	if e.Backend != nil && e.Backend.Cleanup != nil {
		return e.Backend.Cleanup()
	}
	return nil
}

// OpenEnvironment creates the configured backend and loads the tracker from it.
func OpenEnvironment(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts ...tracker.Option) (*Environment, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	result, err := backend.NewFactory(logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	opts = append([]tracker.Option{tracker.WithLogger(logger)}, opts...)
	if result.Notifier != nil {
		opts = append(opts, tracker.WithNotifier(result.Notifier))
	}

	return &Environment{
		Config:  cfg,
		Backend: result,
		Tracker: tracker.Open(ctx, result.Store, opts...),
	}, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM. Calling
// the returned stop releases the signal handler without logging.
func ShutdownContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	ctx, cancel, _ := watchSignals(logger, sigs)
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

// watchSignals cancels the returned context on the first signal from sigs.
// done is closed once the watcher has exited.
func watchSignals(logger *slog.Logger, sigs <-chan os.Signal) (ctx context.Context, cancel context.CancelFunc, done <-chan struct{}) {
	ctx, cancel = context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case sig := <-sigs:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel, exited
}
