// Package listener manages the per event type subscriptions held on one node
// connection and broadcasts their notifications to independent receivers.
package listener

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
)

var (
	// ErrNotFound is returned when no listener exists for the requested event type.
	ErrNotFound = errors.New("listener not found")

	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("listener manager closed")
)

// Subscriber opens and releases subscriptions on the node.
type Subscriber interface {
	Subscribe(ctx context.Context, typ event.Type) (id string, err error)
	Unsubscribe(ctx context.Context, typ event.Type, id string) error
}

// Manager owns the listeners of one node connection, at most one per event
// type. Every listener it holds was successfully subscribed on the node.
type Manager struct {
	subscriber Subscriber
	buffer     int

	// opMu serializes subscribe and unsubscribe round trips so mu is never
	// held across node I/O.
	opMu sync.Mutex

	mu        sync.RWMutex
	listeners map[event.Type]*Listener
	closed    bool
}

// New returns a manager without subscriptions.
func New(subscriber Subscriber, buffer int) *Manager {
	return &Manager{
		subscriber: subscriber,
		buffer:     buffer,
		listeners:  make(map[event.Type]*Listener),
	}
}

// NewManager subscribes every type in events. If any subscription fails the
// ones already made are released and the error is returned.
func NewManager(ctx context.Context, subscriber Subscriber, events []event.Type, buffer int) (*Manager, error) {
	m := New(subscriber, buffer)
	if err := m.Open(ctx, events); err != nil {
		return nil, err
	}
	return m, nil
}

// Open subscribes every type in events, all or nothing: on failure every
// subscription held by m is released and m is closed.
func (m *Manager) Open(ctx context.Context, events []event.Type) error {
	if err := m.SubscribeToEvents(ctx, events); err != nil {
		if rbErr := m.UnsubscribeFromEvents(ctx, m.ActiveEvents()); rbErr != nil {
			logger.Warn(ctx, "failed to release partial subscriptions", "error", rbErr)
		}
		m.Close()
		return err
	}
	return nil
}

// SubscribeToEvents subscribes every type in events that is not subscribed
// yet. Types already present are skipped.
func (m *Manager) SubscribeToEvents(ctx context.Context, events []event.Type) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	for _, typ := range events {
		if m.isClosed() {
			return ErrClosed
		}

		if m.HasEvent(typ) {
			continue
		}

		id, err := m.subscriber.Subscribe(ctx, typ)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", typ, err)
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			if err := m.subscriber.Unsubscribe(ctx, typ, id); err != nil {
				logger.Warn(ctx, "failed to release subscription of a closed manager", "event", typ.String(), "error", err)
			}
			return ErrClosed
		}
		m.listeners[typ] = newListener(id, typ, m.buffer)
		m.mu.Unlock()

		logger.Debug(ctx, "event subscribed", "event", typ.String(), "listener_id", id)
	}

	return nil
}

// UnsubscribeFromEvents releases the node subscription and drops the local
// listener of every subscribed type in events. Unknown types are ignored.
// The local listener is dropped even when the node call fails.
func (m *Manager) UnsubscribeFromEvents(ctx context.Context, events []event.Type) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	var errs []error
	for _, typ := range events {
		m.mu.Lock()
		l, ok := m.listeners[typ]
		delete(m.listeners, typ)
		m.mu.Unlock()

		if !ok {
			continue
		}

		l.close()

		if err := m.subscriber.Unsubscribe(ctx, typ, l.ID()); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %s: %w", typ, err))
		}
	}

	return errors.Join(errs...)
}

// Get returns a new receiver for typ. Receivers are independent: each one
// observes every notification published after it was created.
func (m *Manager) Get(typ event.Type) (*Receiver, error) {
	l, ok := m.Listener(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, typ)
	}
	return l.Subscribe(), nil
}

// Listener returns the listener bound to typ.
func (m *Manager) Listener(typ event.Type) (*Listener, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listeners[typ]
	return l, ok
}

// HasEvent reports whether typ is subscribed.
func (m *Manager) HasEvent(typ event.Type) bool {
	_, ok := m.Listener(typ)
	return ok
}

// ActiveEvents returns the subscribed types in taxonomy order.
func (m *Manager) ActiveEvents() []event.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]event.Type, 0, len(m.listeners))
	for typ := range m.listeners {
		out = append(out, typ)
	}
	slices.SortFunc(out, func(a, b event.Type) int { return cmp.Compare(a, b) })
	return out
}

// ListenerCount returns the number of subscribed types.
func (m *Manager) ListenerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

// Dispatch publishes n to the listener of its type. Notifications for types
// without a listener are discarded. It returns how many receivers got n.
func (m *Manager) Dispatch(n event.Notification) int {
	l, ok := m.Listener(n.Type())
	if !ok {
		return 0
	}
	return l.Publish(n)
}

// Close ends every receiver stream and drops all listeners. Node
// subscriptions are not released; they die with the connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for _, l := range m.listeners {
		l.close()
	}
	clear(m.listeners)
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
