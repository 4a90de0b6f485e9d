// Package tracker owns the application state: the record sequence, the edit
// buffer and the current view filters. All operations are serialised, so
// mutations and their saves happen in the order callers issued them.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// Submit button labels for the two edit buffer states
const (
	ActionAdd    = "Add Expense"
	ActionUpdate = "Update Expense"
)

const defaultViewCacheSize = 64

// Store loads and saves the whole record sequence.
type Store interface {
	Load(ctx context.Context) []core.Expense
	Save(ctx context.Context, records []core.Expense) error
}

// Notifier receives a change event after each successful mutation.
type Notifier interface {
	NotifyChange(ctx context.Context, event string, e core.Expense) error
}

// Result describes the outcome of a submission. Changed is false when an
// update named an id that is not in the store.
type Result struct {
	Expense core.Expense
	Changed bool
}

type Tracker struct {
	mu       sync.Mutex
	records  []core.Expense
	editing  *core.Expense
	filter   core.Filter
	store    Store
	ids      core.IDGenerator
	notifier Notifier
	views    cache.Cache[string, []core.Expense]
	logger   *slog.Logger
}

type Option func(*Tracker)

func WithIDGenerator(gen core.IDGenerator) Option {
	return func(t *Tracker) { t.ids = gen }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithViewCache replaces the default query cache.
func WithViewCache(c cache.Cache[string, []core.Expense]) Option {
	return func(t *Tracker) { t.views = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// Open loads the persisted records once and returns a tracker in the Idle
// state with an empty filter.
func Open(ctx context.Context, store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		ids:    core.UUIDGenerator,
		views:  cache.NewLRU[string, []core.Expense](defaultViewCacheSize, 0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(applog.FieldComponent, applog.ComponentTracker)

	t.records = store.Load(ctx)
	if t.records == nil {
		t.records = []core.Expense{}
	}
	t.logger.InfoContext(ctx, "Loaded expenses", applog.FieldCount, len(t.records))
	return t
}

// Submit applies an add or update request. A validation error leaves the
// state untouched and is returned to the caller.
func (t *Tracker) Submit(ctx context.Context, req core.Request) (Result, error) {
	t.mu.Lock()
	res, ch, err := t.submitLocked(ctx, req)
	t.mu.Unlock()

	t.publish(ctx, ch)
	return res, err
}

func (t *Tracker) submitLocked(ctx context.Context, req core.Request) (Result, *change, error) {
	switch req.Kind {
	case core.KindAdd:
		next, created, err := core.Add(t.records, req.Expense, t.ids)
		if err != nil {
			return Result{}, nil, err
		}
		t.editing = nil
		ch := t.commit(ctx, next, amqp.EventAdded, created)
		return Result{Expense: created, Changed: true}, ch, nil

	case core.KindUpdate:
		e := req.Expense
		if e.ID == "" && t.editing != nil {
			e.ID = t.editing.ID
		}
		next, found, err := core.Update(t.records, e)
		if err != nil {
			return Result{}, nil, err
		}
		if !found {
			t.logger.DebugContext(ctx, "Update for unknown expense ignored", applog.FieldExpenseID, e.ID)
			return Result{Expense: e}, nil, nil
		}
		t.editing = nil
		updated := next[core.IndexOf(next, e.ID)]
		ch := t.commit(ctx, next, amqp.EventUpdated, updated)
		return Result{Expense: updated, Changed: true}, ch, nil

	default:
		return Result{}, nil, core.ErrInvalidRequest
	}
}

// Add is Submit with KindAdd.
func (t *Tracker) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := t.Submit(ctx, core.Request{Kind: core.KindAdd, Expense: e})
	return res.Expense, err
}

// Update is Submit with KindUpdate. It returns ErrNotFound when no record
// carries e's id.
func (t *Tracker) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := t.Submit(ctx, core.Request{Kind: core.KindUpdate, Expense: e})
	if err != nil {
		return core.Expense{}, err
	}
	if !res.Changed {
		return core.Expense{}, core.ErrNotFound
	}
	return res.Expense, nil
}

// Delete removes the record with id. A missing id is a no-op and reports false.
func (t *Tracker) Delete(ctx context.Context, id string) bool {
	t.mu.Lock()
	removed, ok := core.Find(t.records, id)
	if !ok {
		t.mu.Unlock()
		return false
	}
	next, _ := core.Delete(t.records, id)
	if t.editing != nil && t.editing.ID == id {
		t.editing = nil
	}
	ch := t.commit(ctx, next, amqp.EventDeleted, removed)
	t.mu.Unlock()

	t.publish(ctx, ch)
	return true
}

// change is a committed mutation waiting to be published.
type change struct {
	event   string
	expense core.Expense
}

// commit swaps in the new sequence and saves it. The save is best effort and
// runs under the lock so saves land in mutation order. Must hold t.mu.
func (t *Tracker) commit(ctx context.Context, next []core.Expense, event string, e core.Expense) *change {
	t.records = next
	t.views.Purge()

	if err := t.store.Save(ctx, next); err != nil {
		t.logger.ErrorContext(ctx, "Failed to save expenses",
			applog.FieldOperation, applog.OpSave,
			applog.FieldCount, len(next),
			applog.FieldError, err)
	}

	t.logger.InfoContext(ctx, "Expense "+event,
		applog.FieldExpenseID, e.ID,
		applog.FieldCount, len(next))
	return &change{event: event, expense: e}
}

// publish sends a change event. It runs without t.mu held since a broker
// outage can block it for the reconnect timeout.
func (t *Tracker) publish(ctx context.Context, ch *change) {
	if ch == nil || t.notifier == nil {
		return
	}
	if err := t.notifier.NotifyChange(ctx, ch.event, ch.expense); err != nil {
		t.logger.WarnContext(ctx, "Failed to publish expense change",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldExpenseID, ch.expense.ID,
			applog.FieldError, err)
	}
}

// Edit copies the record with id into the edit buffer. A miss clears the
// buffer instead.
func (t *Tracker) Edit(id string) (core.Expense, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := core.Find(t.records, id)
	if !ok {
		t.editing = nil
		return core.Expense{}, false
	}
	t.editing = &e
	return e, true
}

func (t *Tracker) CancelEdit() {
	t.mu.Lock()
	t.editing = nil
	t.mu.Unlock()
}

// Editing returns the edit buffer content.
func (t *Tracker) Editing() (core.Expense, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editing == nil {
		return core.Expense{}, false
	}
	return *t.editing, true
}

// NextAction is the label of the submit action in the current state.
func (t *Tracker) NextAction() string {
	if _, ok := t.Editing(); ok {
		return ActionUpdate
	}
	return ActionAdd
}

// NextKind is the request kind the form submits in the current state.
func (t *Tracker) NextKind() core.RequestKind {
	if _, ok := t.Editing(); ok {
		return core.KindUpdate
	}
	return core.KindAdd
}

func (t *Tracker) SetFilter(f core.Filter) {
	t.mu.Lock()
	t.filter = f
	t.mu.Unlock()
}

func (t *Tracker) Filter() core.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// View applies the current filters.
func (t *Tracker) View() []core.Expense {
	return t.Query(t.Filter())
}

// Query applies f without touching the stored filters or records.
func (t *Tracker) Query(f core.Filter) []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := f.Key()
	if v, ok := t.views.Get(key); ok {
		return slices.Clone(v)
	}
	v := f.Apply(t.records)
	t.views.Set(key, v)
	return slices.Clone(v)
}

// Records returns a copy of the full sequence.
func (t *Tracker) Records() []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.records)
}

func (t *Tracker) Get(id string) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := core.Find(t.records, id); ok {
		return e, nil
	}
	return core.Expense{}, core.ErrNotFound
}

// Summary totals the records matching f.
func (t *Tracker) Summary(f core.Filter) core.Summary {
	return core.Summarize(t.Query(f))
}

// IsValidation reports whether err came from the presence or category checks.
func IsValidation(err error) bool {
	return errors.Is(err, core.ErrMissingField) || errors.Is(err, core.ErrInvalidCategory)
}
