package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
)

// RecordStore reads and writes the whole expense sequence as a JSON array
// under a single slot key.
type RecordStore struct {
	slot Slot
	key  string
}

func NewRecordStore(slot Slot, key string) *RecordStore {
	if key == "" {
		key = DefaultKey
	}
	return &RecordStore{slot: slot, key: key}
}

// Key returns the slot key the store uses.
func (s *RecordStore) Key() string {
	return s.key
}

// Load returns the persisted sequence. An absent, unreadable or malformed
// value yields an empty sequence; the cause is only logged.
func (s *RecordStore) Load(ctx context.Context) []core.Expense {
	data, err := s.slot.Read(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			slog.WarnContext(ctx, "Failed to read storage slot, starting empty", "key", s.key, "error", err)
		}
		return []core.Expense{}
	}

	var records []core.Expense
	if err := json.Unmarshal(data, &records); err != nil {
		slog.WarnContext(ctx, "Malformed storage slot, starting empty", "key", s.key, "error", err)
		return []core.Expense{}
	}
	if records == nil {
		records = []core.Expense{}
	}
	return records
}

// Save overwrites the slot with records.
func (s *RecordStore) Save(ctx context.Context, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := s.slot.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("write slot %s: %w", s.key, err)
	}
	return nil
}

// Close releases the underlying slot if it holds resources.
func (s *RecordStore) Close() error {
	if c, ok := s.slot.(Closer); ok {
		return c.Close()
	}
	return nil
}
