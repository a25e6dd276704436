package interaction

import "sync"

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event and catches up on the
// next one. A nil Bus drops everything.
type Bus struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
	buffer    int
}

// NewBus creates a Bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{
		listeners: make(map[chan Event]struct{}),
		buffer:    buffer,
	}
}

// Subscribe returns a channel receiving published events.
// The caller must call Unsubscribe when done.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.listeners[ch]
	delete(b.listeners, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *Bus) Publish(ev Event) {
	if b == nil || ev == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
