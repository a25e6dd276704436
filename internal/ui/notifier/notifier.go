// Package notifier broadcasts workspace changes to open browser streams.
package notifier

import "sync"

// Reason says what changed.
type Reason string

const (
	// SourceReloaded means records were fetched again and graphs may differ.
	SourceReloaded Reason = "source_reloaded"
	// ConfigsChanged means the saved configuration list changed.
	ConfigsChanged Reason = "configs_changed"
)

// Update is delivered to every listener.
type Update struct {
	Reason Reason
	// Detail is a short human-readable note such as a file name.
	Detail string
}

// Notifier fans updates out to subscribed listeners. A listener holds at
// most one pending update; it re-renders from current state when it wakes
// up, so a skipped update loses nothing.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Update]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Update]struct{}),
	}
}

// Subscribe returns a channel that receives updates.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Update {
	ch := make(chan Update, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unsubscribing an
// unknown channel is a no-op.
func (n *Notifier) Unsubscribe(ch chan Update) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Broadcast sends u to all listeners.
// Non-blocking: if a listener already has a pending update, u is skipped.
func (n *Notifier) Broadcast(u Update) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- u:
		default:
		}
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
