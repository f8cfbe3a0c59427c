package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"docsift/src/logger"
)

// RedpandaBroker publishes flush events to a Kafka-compatible cluster
// via franz-go. A single producer client is shared; each Subscribe call
// gets its own consumer client so group membership stays per-topic.
type RedpandaBroker struct {
	producer *kgo.Client
	seeds    []string
	log      logger.Logger

	mu        sync.RWMutex
	consumers map[string]*kgo.Client
	closed    bool
}

// NewRedpandaBroker connects a producer to the given seed addresses.
// Topics are auto-created so a fresh cluster works without setup.
func NewRedpandaBroker(seeds []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no broker addresses configured")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %v: %w", seeds, err)
	}

	return &RedpandaBroker{
		producer:  producer,
		seeds:     seeds,
		log:       log,
		consumers: make(map[string]*kgo.Client),
	}, nil
}

// Publish produces one record synchronously. The key selects the
// partition, so events for one run stay ordered.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a consumer group member reading topic from the
// earliest offset and returns its message channel. Only one subscription
// per topic/group pair is allowed on a broker instance.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	key := topic + ":" + groupID
	if _, ok := b.consumers[key]; ok {
		return nil, fmt.Errorf("already subscribed to %s as group %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.seeds...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating consumer for %s: %w", topic, err)
	}
	b.consumers[key] = consumer

	out := make(chan Message, 100)
	go b.consume(ctx, consumer, out)
	return out, nil
}

// consume polls until the context is cancelled or the client is closed.
// Fetch errors are logged and the poll retried; a partition with an
// unrecoverable error keeps reporting on every poll, so the log line is
// the operator's signal rather than a silent stall.
func (b *RedpandaBroker) consume(ctx context.Context, consumer *kgo.Client, out chan<- Message) {
	defer close(out)

	for {
		if ctx.Err() != nil {
			return
		}

		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			b.log.Error("fetch %s/%d: %v", topic, partition, err)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			msg := Message{
				Topic:     record.Topic,
				Key:       string(record.Key),
				Value:     record.Value,
				Offset:    record.Offset,
				Partition: record.Partition,
				Timestamp: record.Timestamp.UnixMilli(),
			}
			select {
			case out <- msg:
			case <-ctx.Done():
			}
		})
	}
}

// Close shuts down the producer and every consumer. Subscription
// channels close once their consume loops observe the closed clients.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, consumer := range b.consumers {
		consumer.Close()
	}
	b.consumers = make(map[string]*kgo.Client)

	b.producer.Close()
	return nil
}
