// Package fanout serves chain events to browsers over WebSocket. Every
// session streams its own selection of event types; sessions on the same type
// share the node listener and each receives every notification.
package fanout

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Source resolves receivers and the subscribed event types of the live node
// client.
type Source interface {
	chainstream.Source
	ActiveEvents(ctx context.Context) ([]event.Type, error)
}

// ErrorWriter renders a failure that happened before the upgrade.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	pingInterval time.Duration
	pongWait     time.Duration
	writeWait    time.Duration
	readLimit    int64
	checkOrigin  func(r *http.Request) bool
	errorWriter  ErrorWriter
	streamOpts   []chainstream.Option
}

// Option configures a Handler.
type Option func(*config)

// WithPingInterval sets how often the server pings the browser. The read
// deadline is extended by the pong wait on every pong. Default: 30s / 60s.
func WithPingInterval(ping, pongWait time.Duration) Option {
	return func(c *config) {
		c.pingInterval = ping
		c.pongWait = pongWait
	}
}

// WithWriteWait bounds every socket write. Default: 10s.
func WithWriteWait(d time.Duration) Option {
	return func(c *config) {
		c.writeWait = d
	}
}

// WithReadLimit caps inbound frame size. Default: 4 KiB.
func WithReadLimit(n int64) Option {
	return func(c *config) {
		c.readLimit = n
	}
}

// WithCheckOrigin sets the origin policy of the upgrader. Default: allow all.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *config) {
		c.checkOrigin = fn
	}
}

// WithErrorWriter sets how pre-upgrade failures are rendered.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(c *config) {
		c.errorWriter = fn
	}
}

// WithStreamOptions configures the per-session event streams.
func WithStreamOptions(opts ...chainstream.Option) Option {
	return func(c *config) {
		c.streamOpts = append(c.streamOpts, opts...)
	}
}

// Handler upgrades requests to fan-out sessions.
type Handler struct {
	source   Source
	cfg      config
	upgrader websocket.Upgrader

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// NewHandler returns a Handler streaming from source.
func NewHandler(source Source, opts ...Option) *Handler {
	cfg := config{
		pingInterval: 30 * time.Second,
		pongWait:     60 * time.Second,
		writeWait:    10 * time.Second,
		readLimit:    4 << 10,
		checkOrigin:  func(*http.Request) bool { return true },
		errorWriter: func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		source: source,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: cfg.checkOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// ServeHTTP resolves the requested events and their receivers, then upgrades
// and streams until the socket closes. Failures before the upgrade go through
// the ErrorWriter so they keep their HTTP status.
//
// The events query parameter selects types as a comma separated list and may
// be repeated; without it the session streams every subscribed type.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requested, err := requestedEvents(r)
	if err != nil {
		h.cfg.errorWriter(w, r, err)
		return
	}
	if len(requested) == 0 {
		if requested, err = h.source.ActiveEvents(ctx); err != nil {
			h.cfg.errorWriter(w, r, err)
			return
		}
	}

	stream, err := chainstream.Open(ctx, h.source, requested, h.cfg.streamOpts...)
	if err != nil {
		h.cfg.errorWriter(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		stream.Close()
		logger.Debug(ctx, "websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		stream.Close()
		conn.Close()
		return
	}
	h.sessions.Add(1)
	h.mu.Unlock()
	defer h.sessions.Done()

	s := newSession(h.ctx, uuid.NewString(), conn, stream, h.cfg)
	s.run()
}

// Shutdown ends every open session and waits for them to finish.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.cancel()
	h.mu.Unlock()

	h.sessions.Wait()
}

func requestedEvents(r *http.Request) ([]event.Type, error) {
	var names []string
	for _, v := range r.URL.Query()["events"] {
		for name := range strings.SplitSeq(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	parsed, err := event.ParseList(names)
	if err != nil {
		return nil, err
	}
	return types.SortedSlice(types.NewSet(parsed...)), nil
}
