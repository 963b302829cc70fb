// Package events is the in-process channel for profile change
// notifications. Delivery is synchronous and in subscription order.
package events

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

type Kind string

const (
	KindDataChanged          Kind = "data_changed"
	KindResubmissionRequired Kind = "resubmission_required"
	KindWarningCleared       Kind = "warning_cleared"
	KindMigrationCompleted   Kind = "migration_completed"
)

// Event is a profile notification. Fields not relevant to Kind are empty.
type Event struct {
	Kind          Kind                `json:"kind"`
	UserID        id.UserID           `json:"userId"`
	EntityTypes   []models.EntityType `json:"entityTypes,omitempty"`
	DestinationID id.DestinationID    `json:"destinationId,omitempty"`
	EntryInfoID   id.EntityID         `json:"entryInfoId,omitempty"`
	SnapshotID    id.SnapshotID       `json:"snapshotId,omitempty"`
	WarningID     id.EntityID         `json:"warningId,omitempty"`
	ChangedFields []string            `json:"changedFields,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

type Listener func(Event)

// Publisher is the sending half of a Bus.
type Publisher interface {
	Publish(e Event)
}

type Bus struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[uint64]Listener
	logger    *slog.Logger
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		listeners: make(map[uint64]Listener),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers l and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	token := b.next
	b.listeners[token] = l
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, token)
	}
}

// Publish delivers e to every listener. A panicking listener is logged and
// does not stop delivery to the others.
func (b *Bus) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	for _, l := range b.snapshot() {
		b.deliver(l, e)
	}
}

func (b *Bus) deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked", "kind", e.Kind, "user_id", e.UserID, "panic", r)
		}
	}()
	l(e)
}

func (b *Bus) snapshot() []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tokens := make([]uint64, 0, len(b.listeners))
	for t := range b.listeners {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	out := make([]Listener, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, b.listeners[t])
	}
	return out
}

// Len reports the number of subscribed listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
