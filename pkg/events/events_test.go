package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFillsTimestampWhenZero(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Type: EventMissionCompleted, Message: "m1"})

	select {
	case ev := <-sub:
		assert.False(t, ev.Timestamp.IsZero())
		assert.Equal(t, "m1", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestPublishPreservesExplicitTimestamp(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Publish(&Event{Type: EventMissionCompleted, Timestamp: ts})

	ev := <-sub
	assert.Equal(t, ts, ev.Timestamp)
}

func TestSubscriberCount(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	require.Equal(t, 0, b.SubscriberCount())
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.Unsubscribe(sub1)
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub2)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish(&Event{Type: EventFindingReported})

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case <-sub:
		case <-time.After(time.Second):
			t.Fatal("expected both subscribers to receive the event")
		}
	}
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	b := NewBroker()
	b.Start()
	b.Stop()

	done := make(chan struct{})
	go func() {
		b.Publish(&Event{Type: EventMissionCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish should not block once the broker has stopped")
	}
}
