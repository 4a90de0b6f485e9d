package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"expensetracker/internal/amqp"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/file"
	"expensetracker/internal/storage/memory"
	"expensetracker/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dialAMQP is replaced in tests
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	case FileBackend:
		result, err = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachNotifier(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	slot := memory.NewFromFiles(config.DataDirectory)

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Store: storage.NewRecordStore(slot, config.StorageKey),
		Ready: func(context.Context) error { return nil },
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	slot, err := file.New(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", slot.Dir())

	return &BackendResult{
		Store: storage.NewRecordStore(slot, config.StorageKey),
		Ready: func(context.Context) error {
			_, err := os.Stat(slot.Dir())
			return err
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	store := storage.NewRecordStore(repo, config.StorageKey)
	return &BackendResult{
		Store:   store,
		Ready:   repo.Ping,
		Cleanup: store.Close,
	}, nil
}

// attachNotifier connects the optional AMQP publisher. A broker that cannot be
// reached only disables notifications.
func (f *DefaultFactory) attachNotifier(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}

	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", "error", err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Notifier = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		client.Close()
		if storeCleanup != nil {
			return storeCleanup()
		}
		return nil
	}
}
