package broker

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()

	ctx := context.Background()
	msgChan, err := b.Subscribe(ctx, TopicFlushEvents, "test-group")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish(ctx, TopicFlushEvents, "run-1", []byte(`{"issues":[]}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-msgChan:
		if msg.Topic != TopicFlushEvents {
			t.Errorf("Topic = %q, want %q", msg.Topic, TopicFlushEvents)
		}
		if msg.Key != "run-1" {
			t.Errorf("Key = %q, want %q", msg.Key, "run-1")
		}
		if string(msg.Value) != `{"issues":[]}` {
			t.Errorf("Value = %q", msg.Value)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestInMemoryBroker_MultipleSubscribers(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()

	ctx := context.Background()
	sub1, err := b.Subscribe(ctx, "t", "g1")
	if err != nil {
		t.Fatalf("Subscribe 1 failed: %v", err)
	}
	sub2, err := b.Subscribe(ctx, "t", "g2")
	if err != nil {
		t.Fatalf("Subscribe 2 failed: %v", err)
	}

	if err := b.Publish(ctx, "t", "k", []byte("broadcast")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, sub := range []<-chan Message{sub1, sub2} {
		select {
		case msg := <-sub:
			if string(msg.Value) != "broadcast" {
				t.Errorf("subscriber %d: Value = %q", i+1, msg.Value)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("subscriber %d: timeout waiting for message", i+1)
		}
	}
}

func TestInMemoryBroker_OffsetsIncrease(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()

	ctx := context.Background()
	sub, err := b.Subscribe(ctx, "t", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := b.Publish(ctx, "t", "", []byte("m")); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	for want := int64(0); want < 3; want++ {
		select {
		case msg := <-sub:
			if msg.Offset != want {
				t.Errorf("Offset = %d, want %d", msg.Offset, want)
			}
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestInMemoryBroker_Closed(t *testing.T) {
	b := NewInMemoryBroker()
	b.Close()

	ctx := context.Background()
	if err := b.Publish(ctx, "t", "k", []byte("v")); err == nil {
		t.Error("expected error publishing to closed broker")
	}
	if _, err := b.Subscribe(ctx, "t", "g"); err == nil {
		t.Error("expected error subscribing to closed broker")
	}
}
