package storage

import (
	"context"
	"errors"
)

// DefaultKey is the slot the record sequence lives under.
const DefaultKey = "expenses"

var ErrSlotEmpty = errors.New("storage slot is empty")

// Ports for key/value storage backends.
type (
	// Slot is a key/value medium holding whole serialized values. Writes
	// replace the previous value in full.
	Slot interface {
		// Read returns ErrSlotEmpty when nothing was ever written under key.
		Read(ctx context.Context, key string) ([]byte, error)
		Write(ctx context.Context, key string, value []byte) error
	}

	// Closer is implemented by slots holding external resources.
	Closer interface {
		Close() error
	}
)
