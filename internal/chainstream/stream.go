// Package chainstream merges the notifications of several event types into
// one stream and keeps it flowing across node reconnections: when the client
// behind a receiver goes away, the feed for that type re-attaches to whatever
// client the Source now provides.
package chainstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/listener"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/metrics"
	"github.com/gabapcia/chainscan/internal/pkg/resilience/retry"
	"github.com/gabapcia/chainscan/internal/pkg/types"
	"github.com/gabapcia/chainscan/internal/pkg/x/chflow"
)

var (
	// ErrClosed is returned when adding events to a closed stream.
	ErrClosed = errors.New("stream closed")

	// ErrDetached is reported by Err when a feed could not re-attach.
	ErrDetached = errors.New("event stream detached")
)

// Source hands out receivers for an event type from the current node client.
type Source interface {
	Receiver(ctx context.Context, typ event.Type) (*listener.Receiver, error)
}

type config struct {
	retry      retry.Retry
	bufferSize int
}

// Option configures a Stream.
type Option func(*config)

// WithRetry sets the policy used to re-attach a feed.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithBufferSize sets the capacity of the merged channel. Default: 64.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// Stream is the merged notification flow of a set of event types.
type Stream struct {
	source Source
	cfg    config

	ctx    context.Context
	cancel context.CancelFunc
	out    chan event.Message

	mu     sync.Mutex
	feeds  map[event.Type]context.CancelFunc
	closed bool
	wg     sync.WaitGroup

	errOnce sync.Once
	err     error
}

// Open attaches every type in events and starts forwarding. Attaching is
// attempted once per type; on failure the feeds already started are stopped
// and the error returned, so callers can report it before streaming.
func Open(ctx context.Context, source Source, events []event.Type, opts ...Option) (*Stream, error) {
	cfg := config{
		retry: retry.New(
			retry.WithAttempts(5),
			retry.WithDelay(200*time.Millisecond),
			retry.WithMaxDelay(5*time.Second),
		),
		bufferSize: 64,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Stream{
		source: source,
		cfg:    cfg,
		ctx:    sctx,
		cancel: cancel,
		out:    make(chan event.Message, cfg.bufferSize),
		feeds:  make(map[event.Type]context.CancelFunc, len(events)),
	}

	for _, typ := range events {
		if err := s.Add(ctx, typ); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Messages returns the merged stream. It is closed by Close.
func (s *Stream) Messages() <-chan event.Message {
	return s.out
}

// Done is closed once the stream is closed or a feed failed to re-attach.
func (s *Stream) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Err returns the reason the stream stopped, nil after a plain Close.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Add attaches typ. Adding a type already streamed is a no-op.
func (s *Stream) Add(ctx context.Context, typ event.Type) error {
	if streaming, err := s.has(typ); err != nil || streaming {
		return err
	}

	r, err := s.source.Receiver(ctx, typ)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.ctx.Err() != nil {
		r.Close()
		return ErrClosed
	}
	if _, ok := s.feeds[typ]; ok {
		r.Close()
		return nil
	}

	fctx, cancel := context.WithCancel(s.ctx)
	s.feeds[typ] = cancel

	s.wg.Add(1)
	go s.forward(fctx, typ, r)

	return nil
}

func (s *Stream) has(typ event.Type) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.ctx.Err() != nil {
		return false, ErrClosed
	}
	_, ok := s.feeds[typ]
	return ok, nil
}

// Remove stops streaming typ. It reports whether typ was streamed.
func (s *Stream) Remove(typ event.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.feeds[typ]
	if !ok {
		return false
	}
	cancel()
	delete(s.feeds, typ)
	return true
}

// Events returns the streamed types.
func (s *Stream) Events() []event.Type {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := types.NewSet[event.Type]()
	for typ := range s.feeds {
		set.Add(typ)
	}
	return types.SortedSlice(set)
}

// Close stops every feed, releases their receivers and closes Messages.
// It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	close(s.out)
}

func (s *Stream) fail(err error) {
	s.errOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.cancel()
	})
}

// forward copies notifications of one receiver into the merged channel,
// re-attaching when the receiver ends while the feed is still wanted.
func (s *Stream) forward(ctx context.Context, typ event.Type, r *listener.Receiver) {
	defer s.wg.Done()
	ctx = logger.Derive(ctx, "event", typ.String())

	for {
		n, ok := chflow.Receive(ctx, r.C())
		if !ok {
			r.Close()
			if ctx.Err() != nil {
				return
			}

			logger.Info(ctx, "event receiver ended, re-attaching")

			var err error
			r, err = s.reattach(ctx, typ)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				metrics.StreamReattaches.WithLabelValues(typ.String(), "failure").Inc()
				logger.Error(ctx, "event stream could not re-attach", "error", err)
				s.fail(fmt.Errorf("%w: %s: %w", ErrDetached, typ, err))
				return
			}

			metrics.StreamReattaches.WithLabelValues(typ.String(), "success").Inc()
			continue
		}

		if !chflow.Send(ctx, s.out, event.NewMessage(n)) {
			r.Close()
			return
		}
	}
}

func (s *Stream) reattach(ctx context.Context, typ event.Type) (*listener.Receiver, error) {
	var r *listener.Receiver
	err := s.cfg.retry.Execute(ctx, func() error {
		var err error
		r, err = s.source.Receiver(ctx, typ)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
