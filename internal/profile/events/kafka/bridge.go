// Package kafka forwards profile events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"travelkeep/internal/platform/config"
	"travelkeep/internal/profile/events"
	"travelkeep/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the bridge uses.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Bridge serializes every event as JSON and produces it keyed by user id.
// Failures are logged and never reach the publisher. After repeated
// failures the bridge logs one outage line instead of one per record.
type Bridge struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	breaker  *circuit.Breaker
}

type Option func(*Bridge)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

func NewBridge(producer Producer, topic string, opts ...Option) *Bridge {
	b := &Bridge{
		producer: producer,
		topic:    topic,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		breaker:  circuit.New("kafka-bridge", circuit.WithFailureThreshold(5)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach subscribes the bridge to bus.
func (b *Bridge) Attach(bus *events.Bus) (detach func()) {
	return bus.Subscribe(b.Handle)
}

func (b *Bridge) Handle(e events.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("failed to encode event", "kind", e.Kind, "error", err)
		return
	}
	rec := &kgo.Record{
		Topic:   b.topic,
		Key:     []byte(e.UserID),
		Value:   payload,
		Headers: []kgo.RecordHeader{{Key: "kind", Value: []byte(e.Kind)}},
	}
	// Produce outlives the publishing request, so it does not inherit its context.
	b.producer.Produce(context.Background(), rec, func(r *kgo.Record, err error) {
		if err == nil {
			if _, change := b.breaker.RecordSuccess(); change.Closed {
				b.logger.Info("event stream recovered", "topic", r.Topic)
			}
			return
		}
		useFallback, change := b.breaker.RecordFailure()
		switch {
		case change.Opened:
			b.logger.Error("event stream unavailable, suppressing per-record warnings", "topic", r.Topic, "error", err)
		case !useFallback:
			b.logger.Warn("failed to produce event", "kind", e.Kind, "user_id", e.UserID, "topic", r.Topic, "error", err)
		}
	})
}

// Healthy reports whether recent produces succeeded.
func (b *Bridge) Healthy() bool { return !b.breaker.IsOpen() }

// NewClient builds a producer client from config.
func NewClient(cfg config.Kafka, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.AllowAutoTopicCreation(),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic unless it already exists.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
