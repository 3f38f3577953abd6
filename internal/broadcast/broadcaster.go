package broadcast

import (
	"log/slog"
	"sync"
)

// DefaultBufferSize is the per-subscriber queue depth used when the
// configured value is missing or nonsensical.
const DefaultBufferSize = 16

// Subscriber is one registered listener. Its channel is closed when the
// subscriber is removed, either explicitly or because it fell behind.
type Subscriber struct {
	ch chan []byte
}

// Events returns the delivery channel. Each message is the JSON payload of
// one committed mutation, in commit order.
func (that *Subscriber) Events() <-chan []byte {
	return that.ch
}

// Broadcaster fans pre-marshaled event payloads out to every subscriber of
// one session. Delivery is best effort: sends never block, and a subscriber
// whose queue is full is dropped rather than allowed to stall the publisher.
type Broadcaster struct {
	logger *slog.Logger
	buffer int

	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

func New(logger *slog.Logger, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	return &Broadcaster{
		logger: logger.With("component", "broadcast"),
		buffer: buffer,
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new listener. The caller must eventually call
// Unsubscribe; events published before registration are not replayed.
func (that *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan []byte, that.buffer)}

	that.mu.Lock()
	that.subs[sub] = struct{}{}
	that.mu.Unlock()

	return sub
}

// Unsubscribe removes a listener and closes its channel. It is safe to call
// for a subscriber that was already dropped.
func (that *Broadcaster) Unsubscribe(sub *Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.remove(sub)
}

// Publish delivers msg to every live subscriber. Subscribers that cannot
// accept the message immediately are deregistered.
func (that *Broadcaster) Publish(msg []byte) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.subs {
		select {
		case sub.ch <- msg:
		default:
			that.logger.Warn("dropping slow subscriber")
			that.remove(sub)
		}
	}
}

// Count reports the number of live subscribers.
func (that *Broadcaster) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subs)
}

// remove must be called with the mutex held.
func (that *Broadcaster) remove(sub *Subscriber) {
	if _, ok := that.subs[sub]; !ok {
		return
	}

	delete(that.subs, sub)
	close(sub.ch)
}
