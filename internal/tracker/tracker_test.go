package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

type recordingNotifier struct {
	events []string
	ids    []string
	err    error
}

func (n *recordingNotifier) NotifyChange(_ context.Context, event string, e core.Expense) error {
	n.events = append(n.events, event)
	n.ids = append(n.ids, e.ID)
	return n.err
}

// blockingNotifier holds every publish until release is closed.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) NotifyChange(context.Context, string, core.Expense) error {
	n.entered <- struct{}{}
	<-n.release
	return nil
}

type failingStore struct {
	saves int
}

func (s *failingStore) Load(context.Context) []core.Expense { return nil }

func (s *failingStore) Save(context.Context, []core.Expense) error {
	s.saves++
	return errors.New("disk full")
}

func counter() core.IDGenerator {
	n := 0
	return core.IDFunc(func() string {
		n++
		return fmt.Sprint(n)
	})
}

func seeded(t *testing.T) (*Tracker, *storage.RecordStore, *memory.Store) {
	t.Helper()
	slot := memory.New()
	store := storage.NewRecordStore(slot, storage.DefaultKey)
	require.NoError(t, store.Save(context.Background(), []core.Expense{
		{ID: "1", Title: "Rent", Amount: "1000", Category: core.Rent, Date: "2024-01-01"},
		{ID: "2", Title: "Pizza", Amount: "15", Category: core.Food, Date: "2024-01-02"},
	}))
	return Open(context.Background(), store, WithIDGenerator(counter())), store, slot
}

func TestOpenEmptySlot(t *testing.T) {
	tr := Open(context.Background(), storage.NewRecordStore(memory.New(), ""))
	assert.Empty(t, tr.Records())
	assert.NotNil(t, tr.Records())
	assert.Equal(t, ActionAdd, tr.NextAction())
}

func TestAddToEmptyStore(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	store := storage.NewRecordStore(slot, "")
	tr := Open(ctx, store)

	res, err := tr.Submit(ctx, core.Request{Kind: core.KindAdd, Expense: core.Expense{
		Title: "Coffee", Amount: "50", Category: core.Food, Date: "2024-01-01",
	}})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.Expense.ID)

	records := tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Coffee", records[0].Title)

	// persisted after the mutation
	assert.Equal(t, records, store.Load(ctx))
	assert.Equal(t, 1, slot.Writes())
}

func TestSearchAllCategories(t *testing.T) {
	tr, _, _ := seeded(t)
	got := tr.Query(core.Filter{Search: "pi", Category: core.AllCategories})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestFilterByCategory(t *testing.T) {
	tr, _, _ := seeded(t)
	got := tr.Query(core.Filter{Category: "Rent"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestEditThenUpdate(t *testing.T) {
	ctx := context.Background()
	tr, store, _ := seeded(t)

	e, ok := tr.Edit("2")
	require.True(t, ok)
	assert.Equal(t, "Pizza", e.Title)
	assert.Equal(t, ActionUpdate, tr.NextAction())
	assert.Equal(t, core.KindUpdate, tr.NextKind())

	e.Title = "Pizza Large"
	res, err := tr.Submit(ctx, core.Request{Kind: core.KindUpdate, Expense: e})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Pizza Large", records[1].Title)
	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, "Rent", records[0].Title)

	_, editing := tr.Editing()
	assert.False(t, editing)
	assert.Equal(t, ActionAdd, tr.NextAction())
	assert.Equal(t, records, store.Load(ctx))
}

func TestUpdateUsesEditBufferID(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := seeded(t)

	_, ok := tr.Edit("1")
	require.True(t, ok)
	res, err := tr.Submit(ctx, core.Request{Kind: core.KindUpdate, Expense: core.Expense{
		Title: "Rent March", Amount: "1100", Category: core.Rent, Date: "2024-03-01",
	}})
	require.NoError(t, err)
	assert.Equal(t, "1", res.Expense.ID)
	assert.Equal(t, "Rent March", tr.Records()[0].Title)
}

func TestUpdateUnknownID(t *testing.T) {
	ctx := context.Background()
	tr, _, slot := seeded(t)
	before := tr.Records()
	writes := slot.Writes()

	res, err := tr.Submit(ctx, core.Request{Kind: core.KindUpdate, Expense: core.Expense{
		ID: "nope", Title: "x", Amount: "1", Date: "2024-01-01",
	}})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, before, tr.Records())
	assert.Equal(t, writes, slot.Writes())

	_, err = tr.Update(ctx, core.Expense{ID: "nope", Title: "x", Amount: "1", Date: "2024-01-01"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tr, store, _ := seeded(t)

	assert.True(t, tr.Delete(ctx, "1"))
	records := tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].ID)
	assert.Equal(t, records, store.Load(ctx))
}

func TestDeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	tr, _, slot := seeded(t)
	before := tr.Records()
	writes := slot.Writes()

	assert.False(t, tr.Delete(ctx, "missing"))
	assert.Equal(t, before, tr.Records())
	assert.Equal(t, writes, slot.Writes())
}

func TestDeleteClearsEditBufferForSameRecord(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := seeded(t)

	tr.Edit("2")
	tr.Delete(ctx, "2")
	_, editing := tr.Editing()
	assert.False(t, editing)
}

func TestAddMissingAmountIsRejected(t *testing.T) {
	ctx := context.Background()
	tr, _, slot := seeded(t)
	before := tr.Records()
	writes := slot.Writes()

	_, err := tr.Submit(ctx, core.Request{Kind: core.KindAdd, Expense: core.Expense{
		Title: "Lunch", Amount: "", Category: core.Food, Date: "2024-01-03",
	}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, before, tr.Records())
	assert.Equal(t, writes, slot.Writes())
}

func TestUpdateMissingFieldKeepsEditBuffer(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := seeded(t)

	e, _ := tr.Edit("2")
	e.Date = ""
	_, err := tr.Submit(ctx, core.Request{Kind: core.KindUpdate, Expense: e})
	require.ErrorIs(t, err, core.ErrMissingField)

	buf, editing := tr.Editing()
	assert.True(t, editing)
	assert.Equal(t, "2024-01-02", buf.Date)
}

func TestEditMissingClearsBuffer(t *testing.T) {
	tr, _, _ := seeded(t)
	tr.Edit("1")

	_, ok := tr.Edit("missing")
	assert.False(t, ok)
	_, editing := tr.Editing()
	assert.False(t, editing)
}

func TestCancelEdit(t *testing.T) {
	tr, _, _ := seeded(t)
	tr.Edit("1")
	tr.CancelEdit()
	assert.Equal(t, ActionAdd, tr.NextAction())
}

func TestAddWhileEditingReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := seeded(t)
	tr.Edit("1")

	_, err := tr.Add(ctx, core.Expense{Title: "Bus", Amount: "2", Date: "2024-01-04"})
	require.NoError(t, err)
	assert.Len(t, tr.Records(), 3)
	assert.Equal(t, ActionAdd, tr.NextAction())
}

func TestInvalidRequestKind(t *testing.T) {
	tr, _, _ := seeded(t)
	_, err := tr.Submit(context.Background(), core.Request{Expense: core.Expense{Title: "a", Amount: "1", Date: "d"}})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestQueryIsPureAndCacheInvalidated(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := seeded(t)
	f := core.Filter{Search: "p"}

	first := tr.Query(f)
	second := tr.Query(f)
	assert.Equal(t, first, second)
	assert.Len(t, tr.Records(), 2)

	// mutating the returned view must not leak into the cache
	first[0].Title = "changed"
	assert.NotEqual(t, "changed", tr.Query(f)[0].Title)

	_, err := tr.Add(ctx, core.Expense{Title: "Pie", Amount: "4", Date: "2024-01-05"})
	require.NoError(t, err)
	assert.Len(t, tr.Query(f), 2)
}

func TestViewUsesStoredFilter(t *testing.T) {
	tr, _, _ := seeded(t)
	assert.Len(t, tr.View(), 2)

	tr.SetFilter(core.Filter{Category: string(core.Food)})
	assert.Equal(t, core.Filter{Category: "Food"}, tr.Filter())
	view := tr.View()
	require.Len(t, view, 1)
	assert.Equal(t, "Pizza", view[0].Title)
}

func TestSummary(t *testing.T) {
	tr, _, _ := seeded(t)
	s := tr.Summary(core.Filter{})
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "1015", s.Total.String())
}

func TestGet(t *testing.T) {
	tr, _, _ := seeded(t)
	e, err := tr.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", e.Title)

	_, err = tr.Get("x")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNotifierReceivesEvents(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	tr := Open(ctx, storage.NewRecordStore(memory.New(), ""), WithNotifier(n), WithIDGenerator(counter()))

	created, err := tr.Add(ctx, core.Expense{Title: "Tea", Amount: "20", Date: "2024-02-01"})
	require.NoError(t, err)
	created.Amount = "25"
	_, err = tr.Update(ctx, created)
	require.NoError(t, err)
	tr.Delete(ctx, created.ID)

	assert.Equal(t, []string{amqp.EventAdded, amqp.EventUpdated, amqp.EventDeleted}, n.events)
	assert.Equal(t, []string{"1", "1", "1"}, n.ids)
}

func TestSideEffectFailuresAreNotReturned(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	n := &recordingNotifier{err: errors.New("broker down")}
	tr := Open(ctx, store, WithNotifier(n))

	_, err := tr.Add(ctx, core.Expense{Title: "Tea", Amount: "20", Date: "2024-02-01"})
	require.NoError(t, err)
	assert.Len(t, tr.Records(), 1)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, n.events, 1)
}

func TestSlowNotifierDoesNotBlockReads(t *testing.T) {
	ctx := context.Background()
	n := &blockingNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	tr := Open(ctx, storage.NewRecordStore(memory.New(), ""), WithNotifier(n), WithIDGenerator(counter()))

	added := make(chan error, 1)
	go func() {
		_, err := tr.Add(ctx, core.Expense{Title: "Tea", Amount: "20", Date: "2024-02-01"})
		added <- err
	}()

	select {
	case <-n.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never called")
	}

	reads := make(chan []core.Expense, 1)
	go func() {
		tr.Editing()
		tr.Filter()
		reads <- tr.Query(core.Filter{Category: core.AllCategories})
	}()

	select {
	case got := <-reads:
		require.Len(t, got, 1)
		assert.Equal(t, "Tea", got[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("reads blocked while a change was being published")
	}

	close(n.release)
	require.NoError(t, <-added)
}
