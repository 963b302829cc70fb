package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "a:"+string(e.Kind)) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+string(e.Kind)) })

	bus.Publish(Event{Kind: KindDataChanged, UserID: "user1"})
	assert.Equal(t, []string{"a:data_changed", "b:data_changed"}, got)
}

func TestPublishStampsOccurredAt(t *testing.T) {
	bus := NewBus()
	var got Event
	bus.Subscribe(func(e Event) { got = e })
	bus.Publish(Event{Kind: KindMigrationCompleted})
	assert.False(t, got.OccurredAt.IsZero())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })
	bus.Publish(Event{Kind: KindDataChanged})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Kind: KindDataChanged})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Len())
}

func TestPanickingListenerDoesNotBreakOthers(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { delivered = true })

	require.NotPanics(t, func() { bus.Publish(Event{Kind: KindWarningCleared}) })
	assert.True(t, delivered)
}

func TestListenerMayUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(Event) { unsubscribe() })
	require.NotPanics(t, func() { bus.Publish(Event{Kind: KindDataChanged}) })
	assert.Zero(t, bus.Len())
}
