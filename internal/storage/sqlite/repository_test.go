package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "expenses.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRepositoryReadWrite(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Read(ctx, "expenses")
	assert.True(t, errors.Is(err, storage.ErrSlotEmpty))
	_, err = repo.UpdatedAt(ctx, "expenses")
	assert.True(t, errors.Is(err, storage.ErrSlotEmpty))

	require.NoError(t, repo.Write(ctx, "expenses", []byte(`[1]`)))
	require.NoError(t, repo.Write(ctx, "expenses", []byte(`[2]`)))

	got, err := repo.Read(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	ts, err := repo.UpdatedAt(ctx, "expenses")
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
	assert.NoError(t, repo.Ping(ctx))
}

func TestRepositoryPersistsAcrossReopen(t *testing.T) {
	repo, path := newTestRepository(t)
	ctx := context.Background()

	records := []core.Expense{{ID: "x", Title: "Movie", Amount: "300", Category: core.Entertainment, Date: "2024-02-10"}}
	require.NoError(t, storage.NewRecordStore(repo, "").Save(ctx, records))
	require.NoError(t, repo.Close())

	// migrations must be idempotent on an existing database
	reopened, err := NewRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, records, storage.NewRecordStore(reopened, "").Load(ctx))
}
