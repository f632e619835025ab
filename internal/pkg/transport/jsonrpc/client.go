// Package jsonrpc provides a JSON RPC client over a persistent WebSocket
// connection. Requests are correlated with responses by id; messages pushed
// by the peer without an id are exposed as notifications.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"

	"github.com/gorilla/websocket"
)

type config struct {
	writeTimeout       time.Duration
	notificationBuffer int
	dialer             *websocket.Dialer
}

// Option configures a Conn.
type Option func(*config)

// WithWriteTimeout bounds every frame write. Default: 10 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) {
		c.writeTimeout = d
	}
}

// WithNotificationBuffer sets how many notifications may be queued before the
// read loop waits for the consumer. Default: 256.
func WithNotificationBuffer(n int) Option {
	return func(c *config) {
		c.notificationBuffer = n
	}
}

// WithDialer replaces the websocket dialer used by Dial.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		c.dialer = d
	}
}

// Conn is a JSON RPC session bound to one WebSocket connection.
//
// Liveness is tracked explicitly: it is set when the connection is
// established and cleared on the first read error, write failure or Close.
type Conn struct {
	ws  *websocket.Conn
	cfg config

	writeMu sync.Mutex
	mux     *envelope.Mux
	live    atomic.Bool
}

func newConfig(opts []Option) config {
	cfg := config{
		writeTimeout:       10 * time.Second,
		notificationBuffer: 256,
		dialer:             websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Dial opens a WebSocket connection to url and starts its read loop.
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	cfg := newConfig(opts)

	ws, resp, err := cfg.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return newConn(ws, cfg), nil
}

// NewConn wraps an already established WebSocket connection.
func NewConn(ws *websocket.Conn, opts ...Option) *Conn {
	return newConn(ws, newConfig(opts))
}

func newConn(ws *websocket.Conn, cfg config) *Conn {
	c := &Conn{
		ws:  ws,
		cfg: cfg,
		mux: envelope.NewMux(cfg.notificationBuffer),
	}
	c.live.Store(true)

	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	ctx := context.Background()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.live.Store(false)
			c.mux.Shutdown(fmt.Errorf("%w: %w", envelope.ErrClosed, err))
			return
		}

		var msg envelope.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn(ctx, "discarding malformed frame", "error", err)
			continue
		}

		c.mux.Deliver(msg)
	}
}

func (c *Conn) send(msg envelope.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout)); err != nil {
		c.live.Store(false)
		return err
	}

	if err := c.ws.WriteJSON(msg); err != nil {
		c.live.Store(false)
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Call sends method with params and returns the raw result.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return c.mux.Call(ctx, c.send, method, params)
}

// Notifications returns the stream of messages pushed by the peer.
func (c *Conn) Notifications() <-chan envelope.Message {
	return c.mux.Notifications()
}

// Done is closed when the connection is gone.
func (c *Conn) Done() <-chan struct{} {
	return c.mux.Done()
}

// IsLive reports whether the connection is still usable.
func (c *Conn) IsLive() bool {
	return c.live.Load()
}

// Close sends a close frame and tears the connection down.
func (c *Conn) Close() error {
	c.live.Store(false)

	c.writeMu.Lock()
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	err := c.ws.Close()
	c.mux.Shutdown(envelope.ErrClosed)
	return err
}
