// Package node is the client of the upstream chain node. One Client speaks
// either the gRPC or the WebSocket JSON RPC protocol, chosen from the URL
// scheme, and exposes the same capabilities for both: liveness, calls and the
// listener manager holding its event subscriptions.
package node

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/listener"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
)

const notifyMethod = "notify"

var (
	// ErrEmptyPayload is returned when the node answers a call without data.
	ErrEmptyPayload = errors.New("node returned an empty payload")

	// ErrNodeReturnedError is returned when the node answers a call with an error object.
	ErrNodeReturnedError = errors.New("node returned an error")

	// ErrProtocol is returned for responses that do not have the expected shape.
	ErrProtocol = errors.New("node protocol error")

	// ErrClosed is returned when the connection to the node is gone.
	ErrClosed = errors.New("node connection closed")
)

type config struct {
	bufferSize      int
	tls             *tls.Config
	grpcDialOptions []grpc.DialOption
	wsDialer        *websocket.Dialer
}

// Option configures how a Client connects.
type Option func(*config)

// WithBufferSize sets the queue size of every listener receiver. Default: 1000.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithTLSConfig sets the TLS configuration used for https:// endpoints.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *config) {
		c.tls = cfg
	}
}

// WithGRPCDialOptions appends raw gRPC dial options.
func WithGRPCDialOptions(opts ...grpc.DialOption) Option {
	return func(c *config) {
		c.grpcDialOptions = append(c.grpcDialOptions, opts...)
	}
}

// WithWebsocketDialer replaces the dialer used for wRPC endpoints.
func WithWebsocketDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		c.wsDialer = d
	}
}

// Client is a connection to the node and the subscriptions held on it.
type Client struct {
	endpoint  Endpoint
	transport transport
	listeners *listener.Manager

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ConnectWithEvents dials url and subscribes every type in events. An empty
// events subscribes the whole taxonomy.
//
// The dial is attempted once. If any subscription fails the connection is
// closed and the error returned; no partially subscribed Client is exposed.
func ConnectWithEvents(ctx context.Context, url string, events []event.Type, opts ...Option) (*Client, error) {
	cfg := config{bufferSize: 1000}
	for _, opt := range opts {
		opt(&cfg)
	}

	ep, err := ParseEndpoint(url)
	if err != nil {
		return nil, err
	}

	t, err := dial(ctx, ep, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s node at %s: %w", ep.Protocol, url, err)
	}

	c := &Client{
		endpoint:  ep,
		transport: t,
		stop:      make(chan struct{}),
	}
	c.listeners = listener.New(c, cfg.bufferSize)

	if len(events) == 0 {
		events = event.All()
	}

	// Notifications arrive as soon as the first subscription is made, so they
	// must be drained while the remaining subscribe replies are awaited.
	c.wg.Add(1)
	go c.dispatchLoop()

	if err := c.listeners.Open(ctx, events); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	logger.Info(ctx, "node client connected",
		"url", url,
		"protocol", ep.Protocol.String(),
		"events", len(events),
	)

	return c, nil
}

// Connect dials url and subscribes every event type.
func Connect(ctx context.Context, url string, opts ...Option) (*Client, error) {
	return ConnectWithEvents(ctx, url, nil, opts...)
}

// Factory returns a constructor that connects to a URL with the given events
// and options, suitable for rebuilding clients on demand.
func Factory(events []event.Type, opts ...Option) func(ctx context.Context, url string) (*Client, error) {
	return func(ctx context.Context, url string) (*Client, error) {
		return ConnectWithEvents(ctx, url, events, opts...)
	}
}

// dispatchLoop decodes node notifications and hands them to the listeners.
// When the connection drops, every receiver is closed.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()
	ctx := logger.Derive(context.Background(), "node_url", c.endpoint.String())

	for {
		select {
		case <-c.stop:
			return
		case <-c.transport.done():
			logger.Warn(ctx, "node connection lost")
			c.listeners.Close()
			return
		case msg := <-c.transport.notifications():
			n, err := event.DecodeMethod(msg.Method, msg.Params)
			if err != nil {
				logger.Warn(ctx, "discarding notification", "method", msg.Method, "error", err)
				continue
			}
			c.listeners.Dispatch(n)
		}
	}
}

func mapCallError(err error) error {
	switch {
	case errors.Is(err, envelope.ErrProviderReturnedError):
		return fmt.Errorf("%w: %w", ErrNodeReturnedError, err)
	case errors.Is(err, envelope.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	default:
		return err
	}
}

// Call forwards operation with params to the node and returns its payload.
// A missing or null payload is reported as ErrEmptyPayload.
func (c *Client) Call(ctx context.Context, operation string, params any) (json.RawMessage, error) {
	raw, err := c.transport.call(ctx, operation, params)
	if err != nil {
		return nil, mapCallError(err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPayload, operation)
	}
	return raw, nil
}

type notifyParams struct {
	Scope      string `json:"scope"`
	Command    string `json:"command"`
	ListenerID string `json:"listenerId,omitempty"`
}

// Subscribe starts the node subscription for typ and returns its listener id.
func (c *Client) Subscribe(ctx context.Context, typ event.Type) (string, error) {
	raw, err := c.Call(ctx, notifyMethod, notifyParams{Scope: typ.Scope(), Command: "start"})
	if err != nil {
		return "", err
	}

	var resp struct {
		ListenerID string `json:"listenerId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: decode subscription: %w", ErrProtocol, err)
	}
	if resp.ListenerID == "" {
		return "", fmt.Errorf("%w: subscription to %s returned no listener id", ErrProtocol, typ)
	}

	return resp.ListenerID, nil
}

// Unsubscribe stops the node subscription identified by id.
func (c *Client) Unsubscribe(ctx context.Context, typ event.Type, id string) error {
	_, err := c.transport.call(ctx, notifyMethod, notifyParams{Scope: typ.Scope(), Command: "stop", ListenerID: id})
	if err != nil {
		return mapCallError(err)
	}
	return nil
}

// IsLive reports whether the connection can still serve calls and
// notifications.
func (c *Client) IsLive() bool {
	select {
	case <-c.stop:
		return false
	default:
		return c.transport.isLive()
	}
}

// Listeners returns the manager of the client's subscriptions.
func (c *Client) Listeners() *listener.Manager {
	return c.listeners
}

// Protocol returns the protocol selected from the URL.
func (c *Client) Protocol() Protocol {
	return c.endpoint.Protocol
}

// URL returns the node URL the client was built from.
func (c *Client) URL() string {
	return c.endpoint.String()
}

// Close drops every listener and closes the connection. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.listeners.Close()
		err = c.transport.close()
		c.wg.Wait()
	})
	return err
}

var _ listener.Subscriber = (*Client)(nil)
