package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/coffeeco/order-engine/internal/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := events.NewHub()

	s1 := hub.Subscribe()
	s2 := hub.Subscribe()
	defer hub.Unsubscribe(s1)
	defer hub.Unsubscribe(s2)

	hub.Publish(events.EventNewOrder, "order-1")

	for _, s := range []*events.Subscriber{s1, s2} {
		select {
		case ev := <-s.C():
			assert.Equal(t, events.EventNewOrder, ev.Name)
			assert.Equal(t, "order-1", ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	hub := events.NewHub()

	hub.Publish(events.EventNewOrder, "before")

	s := hub.Subscribe()
	defer hub.Unsubscribe(s)

	select {
	case ev := <-s.C():
		t.Fatalf("unexpected event %q, no replay expected", ev.Name)
	default:
	}
}

func TestUnsubscribeStopsDeliveryAndClosesChannel(t *testing.T) {
	hub := events.NewHub()

	s := hub.Subscribe()
	hub.Unsubscribe(s)
	require.Equal(t, 0, hub.Subscribers())

	hub.Publish(events.EventNewOrder, "after")

	_, open := <-s.C()
	assert.False(t, open, "channel must be closed after unsubscribe")

	// second unsubscribe is a no-op, not a panic
	hub.Unsubscribe(s)
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := events.NewHub()

	slow := hub.Subscribe() // never drained
	fast := hub.Subscribe()
	defer hub.Unsubscribe(slow)
	defer hub.Unsubscribe(fast)

	// Push well past the per-subscriber buffer; the slow one drops, the
	// fast one keeps receiving and Publish never blocks.
	for i := 0; i < 100; i++ {
		hub.Publish(events.EventOrderStatus, i)
		select {
		case <-fast.C():
		case <-time.After(time.Second):
			t.Fatal("fast subscriber starved by slow one")
		}
	}
}

func TestSubscribers(t *testing.T) {
	hub := events.NewHub()
	assert.Equal(t, 0, hub.Subscribers())

	s1 := hub.Subscribe()
	s2 := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	hub.Unsubscribe(s1)
	assert.Equal(t, 1, hub.Subscribers())
	hub.Unsubscribe(s2)
	assert.Equal(t, 0, hub.Subscribers())
}
