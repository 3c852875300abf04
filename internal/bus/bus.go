// Package bus is the in-process event fan-out between the session
// orchestrator and its user interfaces. The orchestrator publishes; the
// gateway's websocket handlers and the chat command subscribe.
package bus

import "sync"

const defaultBufSize = 64

// Bus delivers orchestrator events to any number of subscribers.
//
// Every subscriber gets its own buffered channel. Publish never blocks: a
// subscriber that stops draining loses events, which is acceptable because
// the transcript and status streams are snapshot-shaped and self-repair on
// the next publish.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func New() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new consumer. The returned cancel func must be called
// when the consumer goes away; it closes the event channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, defaultBufSize)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans an event out to all current subscribers without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
