package backend

import (
	"context"

	"expensetracker/internal/amqp"
	"expensetracker/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles the record store built for a backend with the
// optional change publisher and a readiness probe.
type BackendResult struct {
	Store *storage.RecordStore
	// Notifier is nil when AMQP is not configured or unreachable
	Notifier *amqp.Client
	Ready    func(ctx context.Context) error
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Slot key the record sequence is stored under
	StorageKey string

	// file backend directory; memory backend seeds from *.json files here
	DataDirectory string

	SQLiteDBPath string

	// Optional change notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
