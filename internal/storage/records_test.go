package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

type failingSlot struct{ err error }

func (f failingSlot) Read(context.Context, string) ([]byte, error)  { return nil, f.err }
func (f failingSlot) Write(context.Context, string, []byte) error { return f.err }

func TestRecordStoreLoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		seed string
	}{
		{"malformed", "{oops"},
		{"null", "null"},
		{"empty array", "[]"},
		{"wrong shape", `{"id":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := memory.New()
			require.NoError(t, slot.Write(ctx, storage.DefaultKey, []byte(tt.seed)))
			got := storage.NewRecordStore(slot, "").Load(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, storage.NewRecordStore(memory.New(), "").Load(ctx))
	})

	t.Run("read error", func(t *testing.T) {
		rs := storage.NewRecordStore(failingSlot{err: errors.New("disk gone")}, "")
		assert.Empty(t, rs.Load(ctx))
	})
}

func TestRecordStoreLoadsNumericFields(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	require.NoError(t, slot.Write(ctx, storage.DefaultKey, []byte(`[
		{"id":1,"title":"Rent","amount":1000,"category":"Rent","date":"2024-01-01"},
		{"id":"b","title":"Pizza","amount":"15","category":"Food","date":"2024-01-02"},
		{"id":"c","title":"Tea","amount":12.30,"category":"Food","date":"2024-01-03"}
	]`)))

	rs := storage.NewRecordStore(slot, "")
	got := rs.Load(ctx)
	want := []core.Expense{
		{ID: "1", Title: "Rent", Amount: "1000", Category: core.Rent, Date: "2024-01-01"},
		{ID: "b", Title: "Pizza", Amount: "15", Category: core.Food, Date: "2024-01-02"},
		{ID: "c", Title: "Tea", Amount: "12.30", Category: core.Food, Date: "2024-01-03"},
	}
	require.Equal(t, want, got)

	// a save after loading must keep every record
	require.NoError(t, rs.Save(ctx, got))
	assert.Equal(t, want, rs.Load(ctx))
}

func TestRecordStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rs := storage.NewRecordStore(memory.New(), "ledger")
	assert.Equal(t, "ledger", rs.Key())

	records := []core.Expense{
		{ID: "1", Title: "Rent", Amount: "1000", Category: core.Rent, Date: "2024-01-01"},
		{ID: "2", Title: "Pizza", Amount: "12", Category: core.Food, Date: "2024-01-02"},
	}
	require.NoError(t, rs.Save(ctx, records))
	assert.Equal(t, records, rs.Load(ctx))

	require.NoError(t, rs.Save(ctx, nil))
	assert.Equal(t, []core.Expense{}, rs.Load(ctx))
}

func TestRecordStoreSaveWrapsErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	rs := storage.NewRecordStore(failingSlot{err: cause}, "")
	err := rs.Save(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
