package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"travelkeep/internal/platform/config"
	"travelkeep/internal/profile/events"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func TestBridgeProducesKeyedJSON(t *testing.T) {
	p := &fakeProducer{}
	bus := events.NewBus()
	NewBridge(p, "profile-events").Attach(bus)

	bus.Publish(events.Event{Kind: events.KindResubmissionRequired, UserID: "user1", ChangedFields: []string{"passportNumber"}})

	require.Len(t, p.records, 1)
	rec := p.records[0]
	assert.Equal(t, "profile-events", rec.Topic)
	assert.Equal(t, []byte("user1"), rec.Key)
	assert.Equal(t, "resubmission_required", string(rec.Headers[0].Value))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, events.KindResubmissionRequired, decoded.Kind)
	assert.Equal(t, []string{"passportNumber"}, decoded.ChangedFields)
}

func TestBridgeSwallowsProduceErrors(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker unavailable")}
	bus := events.NewBus()
	detach := NewBridge(p, "profile-events").Attach(bus)

	assert.NotPanics(t, func() { bus.Publish(events.Event{Kind: events.KindDataChanged, UserID: "user1"}) })
	detach()
	bus.Publish(events.Event{Kind: events.KindDataChanged, UserID: "user1"})
	assert.Len(t, p.records, 1)
}

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient(config.Kafka{Topic: "t"})
	assert.Error(t, err)
}

func TestBridgeOpensCircuitAfterRepeatedFailures(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker unavailable")}
	bus := events.NewBus()
	b := NewBridge(p, "profile-events")
	b.Attach(bus)

	for i := 0; i < 5; i++ {
		bus.Publish(events.Event{Kind: events.KindDataChanged, UserID: "user1"})
	}
	assert.False(t, b.Healthy())

	p.err = nil
	bus.Publish(events.Event{Kind: events.KindDataChanged, UserID: "user1"})
	assert.True(t, b.Healthy())
	assert.Len(t, p.records, 6)
}
