package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryBroker is a process-local Broker used for single-process runs
// and tests. Every subscriber to a topic receives every message.
type InMemoryBroker struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	offset map[string]int64
	closed bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:   make(map[string][]chan Message),
		offset: make(map[string]int64),
	}
}

// Publish delivers the message to all current subscribers of the topic.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    b.offset[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offset[topic]++

	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel for the topic.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	ch := make(chan Message, 100)
	b.subs[topic] = append(b.subs[topic], ch)
	return ch, nil
}

// Close closes all subscriber channels and rejects further use.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan Message)
	return nil
}
