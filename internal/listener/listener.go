package listener

import (
	"sync"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/metrics"
	"github.com/gabapcia/chainscan/internal/pkg/x/chflow"
)

// Listener is one node subscription for one event type. It broadcasts every
// notification to all of its receivers.
type Listener struct {
	id     string
	typ    event.Type
	buffer int

	mu        sync.RWMutex
	receivers map[*Receiver]struct{}
	closed    bool
}

func newListener(id string, typ event.Type, buffer int) *Listener {
	return &Listener{
		id:        id,
		typ:       typ,
		buffer:    buffer,
		receivers: make(map[*Receiver]struct{}),
	}
}

// ID returns the subscription id assigned by the node.
func (l *Listener) ID() string {
	return l.id
}

// Type returns the event type the listener is bound to.
func (l *Listener) Type() event.Type {
	return l.typ
}

// Subscribe attaches a new receiver. Each receiver gets every notification
// published after it was attached, in publish order. Subscribing to a closed
// listener returns an already closed receiver.
func (l *Listener) Subscribe() *Receiver {
	r := &Receiver{
		listener: l,
		ch:       make(chan event.Notification, l.buffer),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		close(r.ch)
		return r
	}

	l.receivers[r] = struct{}{}
	return r
}

// Publish hands n to every receiver without blocking. A receiver whose
// buffer is full misses n; the others are unaffected. It returns how many
// receivers got the notification.
func (l *Listener) Publish(n event.Notification) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	metrics.NotificationsPublished.WithLabelValues(l.typ.String()).Inc()

	delivered := 0
	for r := range l.receivers {
		if chflow.TrySend(r.ch, n) {
			delivered++
			continue
		}
		metrics.NotificationsDropped.WithLabelValues(l.typ.String()).Inc()
	}
	return delivered
}

// ReceiverCount returns the number of attached receivers.
func (l *Listener) ReceiverCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.receivers)
}

func (l *Listener) detach(r *Receiver) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.receivers[r]; ok {
		delete(l.receivers, r)
		close(r.ch)
	}
}

// close ends every receiver's stream.
func (l *Listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	for r := range l.receivers {
		close(r.ch)
	}
	clear(l.receivers)
}

// Receiver is one independent reader of a Listener.
type Receiver struct {
	listener *Listener
	ch       chan event.Notification
}

// C returns the notification stream. It is closed when the receiver or its
// listener is closed.
func (r *Receiver) C() <-chan event.Notification {
	return r.ch
}

// Type returns the event type carried by the receiver.
func (r *Receiver) Type() event.Type {
	return r.listener.typ
}

// Close detaches the receiver. The listener and its other receivers are not
// affected. Close is idempotent.
func (r *Receiver) Close() {
	r.listener.detach(r)
}
