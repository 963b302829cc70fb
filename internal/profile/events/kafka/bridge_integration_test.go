//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"travelkeep/internal/platform/config"
	"travelkeep/internal/profile/events"
	"travelkeep/pkg/testutil/containers"
)

func TestBridgeAgainstRedpanda(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Kafka{Brokers: []string{broker.Broker}, Topic: "travelkeep.test-events", ClientID: "travelkeep-test"}
	producer, err := NewClient(cfg)
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, EnsureTopic(ctx, producer, cfg.Topic, 1, 1))
	require.NoError(t, EnsureTopic(ctx, producer, cfg.Topic, 1, 1))

	bus := events.NewBus()
	NewBridge(producer, cfg.Topic).Attach(bus)
	bus.Publish(events.Event{Kind: events.KindMigrationCompleted, UserID: "user1"})
	require.NoError(t, producer.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	var keys []string
	fetches.EachRecord(func(r *kgo.Record) { keys = append(keys, string(r.Key)) })
	require.Contains(t, keys, "user1")
}
