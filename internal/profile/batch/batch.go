// Package batch applies multi-entity profile writes as one atomic
// adapter batch.
//
// Every commit loads the user's records once, applies a mutation in memory,
// re-derives each entry pack from the result and writes everything that
// changed with a single BatchSave. Cache keys for the changed families are
// invalidated after the commit and before the call returns.
package batch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Invalidator drops cached state for an entity family.
type Invalidator interface {
	Invalidate(entityType models.EntityType, userID id.UserID)
}

// Mutation edits s in place and returns the entities it created or
// changed. Entry packs are refreshed afterwards and need not be returned
// unless the mutation changed them directly.
type Mutation func(s *State, now time.Time) ([]models.Entity, error)

// Result is the committed state plus the families that were written.
type Result struct {
	State   *State
	Changed []models.EntityType
}

type Coordinator struct {
	adapter     store.Adapter
	invalidator Invalidator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithInvalidator sets the cache hook run after each commit.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Coordinator) { c.invalidator = inv }
}

func New(adapter store.Adapter, opts ...Option) *Coordinator {
	c := &Coordinator{
		adapter: adapter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads and decodes the user's state without writing.
func (c *Coordinator) Load(ctx context.Context, userID id.UserID) (*State, error) {
	recs, err := c.adapter.BatchLoad(ctx, userID, StateTypes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user data")
	}
	s, err := DecodeState(userID, recs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode user data")
	}
	return s, nil
}

// BatchUpdate merges updates into the user's profile. Empty updates are a
// pure read.
func (c *Coordinator) BatchUpdate(ctx context.Context, userID id.UserID, u Updates) (Result, error) {
	if u.IsEmpty() {
		s, err := c.Load(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		return Result{State: s, Changed: []models.EntityType{}}, nil
	}
	return c.Apply(ctx, userID, u.Mutation(userID))
}

// Apply runs m against freshly loaded state and commits the result.
func (c *Coordinator) Apply(ctx context.Context, userID id.UserID, m Mutation) (Result, error) {
	s, err := c.Load(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	now := c.now()

	changed, err := m(s, now)
	if err != nil {
		return Result{}, err
	}
	writes := newWriteSet()
	for _, e := range changed {
		writes.add(e)
	}
	for _, e := range s.Entries {
		if e.Refresh(s.Data, now) {
			writes.add(e)
		}
	}
	if writes.empty() {
		return Result{State: s, Changed: []models.EntityType{}}, nil
	}

	for _, e := range writes.entities {
		if v, ok := e.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return Result{}, err
			}
		}
	}
	records, err := writes.records()
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode records")
	}
	if err := c.adapter.BatchSave(ctx, records); err != nil {
		c.metrics.IncBatchWrite("failed")
		c.logger.ErrorContext(ctx, "batch save failed", "user_id", userID, "records", len(records), "error", err)
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user data")
	}
	c.metrics.IncBatchWrite("committed")

	types := writes.types()
	if c.invalidator != nil {
		for _, t := range types {
			c.invalidator.Invalidate(t, userID)
		}
	}
	c.logger.DebugContext(ctx, "batch committed", "user_id", userID, "records", len(records))
	return Result{State: s, Changed: types}, nil
}

type writeKey struct {
	kind models.EntityType
	key  string
}

// writeSet keeps one entry per (type, id), in first-added order.
type writeSet struct {
	index    map[writeKey]int
	entities []models.Entity
}

func newWriteSet() *writeSet {
	return &writeSet{index: make(map[writeKey]int)}
}

func (w *writeSet) add(e models.Entity) {
	k := writeKey{kind: e.Kind(), key: e.Key()}
	if i, ok := w.index[k]; ok {
		w.entities[i] = e
		return
	}
	w.index[k] = len(w.entities)
	w.entities = append(w.entities, e)
}

func (w *writeSet) empty() bool { return len(w.entities) == 0 }

func (w *writeSet) records() ([]models.Record, error) {
	return models.ToRecords(w.entities)
}

func (w *writeSet) types() []models.EntityType {
	seen := make(map[models.EntityType]bool)
	var out []models.EntityType
	for _, e := range w.entities {
		if !seen[e.Kind()] {
			seen[e.Kind()] = true
			out = append(out, e.Kind())
		}
	}
	return out
}
