package broadcast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(buffer int) *Broadcaster {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), buffer)
}

func TestBroadcaster_Publish(t *testing.T) {
	t.Run("delivers to every subscriber in publish order", func(t *testing.T) {
		// Given: a broadcaster with two subscribers
		b := newTestBroadcaster(4)
		first := b.Subscribe()
		second := b.Subscribe()

		// When: three events are published
		b.Publish([]byte("one"))
		b.Publish([]byte("two"))
		b.Publish([]byte("three"))

		// Then: both subscribers observe the same order
		for _, sub := range []*Subscriber{first, second} {
			require.Equal(t, []byte("one"), <-sub.Events())
			require.Equal(t, []byte("two"), <-sub.Events())
			require.Equal(t, []byte("three"), <-sub.Events())
		}
	})

	t.Run("a full subscriber is dropped instead of blocking", func(t *testing.T) {
		// Given: a subscriber with room for a single event that never reads
		b := newTestBroadcaster(1)
		slow := b.Subscribe()

		// When: more events arrive than the queue can hold
		b.Publish([]byte("one"))
		b.Publish([]byte("two"))

		// Then: the queued event is still delivered, then the channel closes
		require.Equal(t, []byte("one"), <-slow.Events())
		_, ok := <-slow.Events()
		require.False(t, ok)

		// Then: the subscriber is gone
		require.Equal(t, 0, b.Count())
	})

	t.Run("dropping one subscriber does not affect the others", func(t *testing.T) {
		// Given: a slow subscriber next to a healthy one
		b := newTestBroadcaster(1)
		slow := b.Subscribe()
		healthy := b.Subscribe()

		// When: two events overflow the slow queue
		b.Publish([]byte("one"))
		require.Equal(t, []byte("one"), <-healthy.Events())
		b.Publish([]byte("two"))

		// Then: the healthy subscriber keeps receiving
		require.Equal(t, []byte("two"), <-healthy.Events())
		require.Equal(t, 1, b.Count())

		// Then: the slow one drains its queue and then closes
		require.Equal(t, []byte("one"), <-slow.Events())
		_, ok := <-slow.Events()
		require.False(t, ok)
	})
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	// Given: a registered subscriber
	b := newTestBroadcaster(4)
	sub := b.Subscribe()
	require.Equal(t, 1, b.Count())

	// When: it unsubscribes
	b.Unsubscribe(sub)

	// Then: its channel closes and it no longer counts
	_, ok := <-sub.Events()
	require.False(t, ok)
	require.Equal(t, 0, b.Count())

	// Then: a second unsubscribe is harmless
	b.Unsubscribe(sub)

	// Then: publishing afterwards reaches nobody and does not panic
	b.Publish([]byte("late"))
}
