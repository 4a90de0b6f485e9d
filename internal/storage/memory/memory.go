package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"expensetracker/internal/storage"
)

// Store is an in-process key/value slot. Values are copied on the way in and
// out so callers never share backing arrays with it.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// NewFromFiles seeds one slot per *.json file in base, keyed by file name
// without extension. A missing directory yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	paths, err := filepath.Glob(filepath.Join(base, "*.json"))
	if err != nil {
		return s
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		s.values[key] = data
	}
	return s
}

// Read implements storage.Slot.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

// Write implements storage.Slot.
func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Writes reports how many writes the store has accepted.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
