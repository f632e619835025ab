// Package envelope defines the request/response/notification envelope shared
// by the node transports and a multiplexer that pairs responses with pending
// calls and routes unsolicited notifications.
package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrProviderReturnedError indicates that the remote peer answered a call with an error object.
	ErrProviderReturnedError = errors.New("provider error")

	// ErrClosed is returned by calls made on, or interrupted by, a closed connection.
	ErrClosed = errors.New("connection closed")
)

// Message is the unit exchanged with the node. Requests carry ID, Method and
// Params; responses carry ID and either Result or Error; notifications carry
// Method and Params without an ID.
type Message struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// IsNotification reports whether m is an unsolicited notification.
func (m Message) IsNotification() bool {
	return m.ID == "" && m.Method != ""
}

// Error is the error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] - %s", e.Code, e.Message)
}

// Sender writes one message to the underlying connection.
type Sender func(Message) error

// Mux tracks in-flight calls for one connection. The owning transport feeds
// every inbound message to Deliver and calls Shutdown once the connection is
// gone.
type Mux struct {
	mu      sync.Mutex
	pending map[string]chan Message

	notifications chan Message

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// NewMux creates a Mux whose notification channel holds up to buffer messages.
func NewMux(buffer int) *Mux {
	return &Mux{
		pending:       make(map[string]chan Message),
		notifications: make(chan Message, buffer),
		done:          make(chan struct{}),
	}
}

// Call sends a request through send and waits for the matching response.
//
// A response carrying an error object is returned as ErrProviderReturnedError.
func (m *Mux) Call(ctx context.Context, send Sender, method string, params any) (json.RawMessage, error) {
	req := Message{
		ID:     uuid.NewString(),
		Method: method,
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		req.Params = raw
	}

	respCh := make(chan Message, 1)
	if err := m.register(req.ID, respCh); err != nil {
		return nil, err
	}
	defer m.unregister(req.ID)

	if err := send(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, m.Err()
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderReturnedError, resp.Error)
		}
		return resp.Result, nil
	}
}

func (m *Mux) register(id string, ch chan Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return m.err
	default:
	}

	m.pending[id] = ch
	return nil
}

func (m *Mux) unregister(id string) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

// Deliver routes an inbound message: responses go to their pending call,
// notifications to the notification channel. Responses for unknown ids, and
// repeated responses for a pending id, are dropped. Deliver blocks while the
// notification buffer is full, until the mux is shut down.
func (m *Mux) Deliver(msg Message) {
	if msg.ID != "" {
		m.mu.Lock()
		ch, ok := m.pending[msg.ID]
		m.mu.Unlock()

		if ok {
			select {
			case ch <- msg:
			default:
			}
		}
		return
	}

	if !msg.IsNotification() {
		return
	}

	select {
	case m.notifications <- msg:
	case <-m.done:
	}
}

// Notifications returns the stream of unsolicited messages. It is never
// closed; select on Done to detect shutdown.
func (m *Mux) Notifications() <-chan Message {
	return m.notifications
}

// Done is closed once the mux has been shut down.
func (m *Mux) Done() <-chan struct{} {
	return m.done
}

// Err returns the shutdown cause, or nil while the mux is running.
func (m *Mux) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Shutdown fails every pending and future call with err (ErrClosed when nil).
// Only the first call has an effect.
func (m *Mux) Shutdown(err error) {
	m.closeOnce.Do(func() {
		if err == nil {
			err = ErrClosed
		}

		m.mu.Lock()
		m.err = err
		close(m.done)
		m.mu.Unlock()
	})
}
