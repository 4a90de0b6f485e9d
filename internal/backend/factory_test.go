package backend

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory without dir", Config{Type: MemoryBackend}, false},
		{"file with dir", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := config.Defaults()
	appCfg.DataBackend = "sqlite"

	cfg, err := FromAppConfig(&appCfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend {
		t.Errorf("Type = %s, want sqlite", cfg.Type)
	}
	if cfg.StorageKey != "expenses" || cfg.SQLiteDBPath != appCfg.SQLiteDBPath {
		t.Errorf("unexpected config %+v", cfg)
	}

	appCfg.DataBackend = "sheets"
	if _, err := FromAppConfig(&appCfg); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestCreateBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"file", Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "expenses.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			if result.Cleanup != nil {
				defer result.Cleanup()
			}
			if err := result.Ready(ctx); err != nil {
				t.Fatalf("Ready() error = %v", err)
			}
			if result.Notifier != nil {
				t.Error("expected no notifier without AMQP URL")
			}

			records := []core.Expense{{ID: "1", Title: "Tea", Amount: "20", Category: core.Food, Date: "2024-01-01"}}
			if err := result.Store.Save(ctx, records); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got := result.Store.Load(ctx)
			if len(got) != 1 || got[0] != records[0] {
				t.Errorf("Load() = %+v, want %+v", got, records)
			}
		})
	}
}

func TestUnreachableBrokerDisablesNotifications(t *testing.T) {
	f := &DefaultFactory{
		logger: slog.Default(),
		dialAMQP: func(string, string, string) (*amqp.Client, error) {
			return nil, errors.New("connection refused")
		},
	}

	result, err := f.CreateBackend(context.Background(), Config{
		Type:         MemoryBackend,
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "expenses",
		AMQPQueue:    "expense_changes",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if result.Notifier != nil {
		t.Error("expected nil notifier")
	}
	if result.Cleanup != nil {
		t.Error("expected no cleanup for memory backend")
	}
}
