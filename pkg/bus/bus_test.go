package bus

import (
	"context"
	"testing"
	"time"
)

func TestEventFanout(t *testing.T) {
	b := New()
	t.Cleanup(b.Close)

	ctx := context.Background()
	eventsA, unsubA := b.Subscribe(ctx, 1)
	defer unsubA()
	eventsB, unsubB := b.Subscribe(ctx, 1)
	defer unsubB()

	event := Event{Type: EventOrderExtracted, MessageID: "1"}
	if ok := b.Publish(ctx, event); !ok {
		t.Fatal("expected event publish to succeed")
	}

	for name, events := range map[string]<-chan Event{"A": eventsA, "B": eventsB} {
		select {
		case got := <-events:
			if got.Type != EventOrderExtracted {
				t.Fatalf("subscriber %s event type = %q, want %q", name, got.Type, EventOrderExtracted)
			}
			if got.At.IsZero() {
				t.Fatalf("subscriber %s event has no timestamp", name)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("subscriber %s did not receive event", name)
		}
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	b := New()
	t.Cleanup(b.Close)

	ctx := context.Background()
	events, unsubscribe := b.Subscribe(ctx, 1)
	defer unsubscribe()

	for i := 0; i < 3; i++ {
		if ok := b.Publish(ctx, Event{Type: EventOrderReceived}); !ok {
			t.Fatal("expected publish to succeed without blocking")
		}
	}

	if got := len(events); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	b := New()
	t.Cleanup(b.Close)

	ctx := context.Background()
	events, unsubscribe := b.Subscribe(ctx, 1)
	unsubscribe()

	if ok := b.Publish(ctx, Event{Type: EventOrderReceived}); !ok {
		t.Fatal("expected event publish to succeed")
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed event channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event channel close after unsubscribe")
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	b := New()
	t.Cleanup(b.Close)

	ctx, cancel := context.WithCancel(context.Background())
	events, _ := b.Subscribe(ctx, 1)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed event channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("subscription did not end with its context")
	}
}

func TestCloseStopsPublishing(t *testing.T) {
	b := New()

	events, _ := b.Subscribe(context.Background(), 1)
	b.Close()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected event channel to be closed")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("event subscription did not unblock after close")
	}

	if ok := b.Publish(context.Background(), Event{Type: EventOrderReceived}); ok {
		t.Fatal("expected publish to fail after close")
	}

	late, _ := b.Subscribe(context.Background(), 1)
	if _, ok := <-late; ok {
		t.Fatal("expected subscription after close to be closed")
	}
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	b := New()
	t.Cleanup(b.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if ok := b.Publish(ctx, Event{Type: EventOrderReceived}); ok {
		t.Fatal("expected publish to fail on canceled context")
	}
}

func TestInboundMessageContext(t *testing.T) {
	msg := InboundMessage{
		Channel: "telegram",
		Metadata: map[string]string{
			MetaSenderPhone: " 0194419638 ",
			MetaSenderName:  "Than",
			MetaGroupName:   "Orders",
			MetaMessageID:   "17",
			MetaTimestamp:   "2025-08-06T01:00:00Z",
		},
	}

	got := msg.MessageContext()
	if got.SenderPhone != "0194419638" {
		t.Fatalf("sender phone = %q", got.SenderPhone)
	}
	if got.SenderDisplayName != "Than" || got.GroupName != "Orders" || got.MessageID != "17" {
		t.Fatalf("context = %#v", got)
	}
	if got.Timestamp != "2025-08-06T01:00:00Z" {
		t.Fatalf("timestamp = %q", got.Timestamp)
	}

	if empty := (InboundMessage{}).MessageContext(); empty.SenderPhone != "" {
		t.Fatalf("empty context = %#v", empty)
	}
}
