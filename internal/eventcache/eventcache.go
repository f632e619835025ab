// Package eventcache records the latest notification of every streamed event
// type so it can be served to clients that were not connected when it
// arrived.
package eventcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
)

var (
	// ErrNotFound is returned when no notification was recorded for a type.
	ErrNotFound = errors.New("no notification recorded")

	// ErrServiceAlreadyStarted is returned when Start is called twice.
	ErrServiceAlreadyStarted = errors.New("event cache already started")
)

// Snapshot is the last notification seen for one event type.
type Snapshot struct {
	Message    event.Message `json:"message"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

// Storage persists one snapshot per event type.
type Storage interface {
	// SaveSnapshot replaces the snapshot of s.Message.Event.
	SaveSnapshot(ctx context.Context, s Snapshot) error

	// LoadSnapshot returns the snapshot of typ, or ErrNotFound.
	LoadSnapshot(ctx context.Context, typ event.Type) (Snapshot, error)
}

// Service records snapshots while started and serves them back.
type Service interface {
	// Start opens the event stream and records in the background.
	Start(ctx context.Context) error

	// Last returns the latest snapshot of typ.
	Last(ctx context.Context, typ event.Type) (Snapshot, error)

	// Close stops recording. Stored snapshots stay readable.
	Close()
}

type config struct {
	storage      Storage
	streamOpts   []chainstream.Option
	restartDelay time.Duration
	now          func() time.Time
}

// Option configures the Service.
type Option func(*config)

// WithStorage sets where snapshots are kept. Default: in memory.
func WithStorage(s Storage) Option {
	return func(c *config) {
		c.storage = s
	}
}

// WithStreamOptions configures the underlying event stream.
func WithStreamOptions(opts ...chainstream.Option) Option {
	return func(c *config) {
		c.streamOpts = append(c.streamOpts, opts...)
	}
}

// WithRestartDelay sets the wait before reopening a lost stream. Default: 5s.
func WithRestartDelay(d time.Duration) Option {
	return func(c *config) {
		c.restartDelay = d
	}
}

type service struct {
	source chainstream.Source
	events []event.Type
	cfg    config

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopped chan struct{}
}

var _ Service = (*service)(nil)

// New returns a Service recording events from source.
func New(source chainstream.Source, events []event.Type, opts ...Option) *service {
	cfg := config{
		storage:      NewMemoryStorage(),
		restartDelay: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		source: source,
		events: events,
		cfg:    cfg,
	}
}

// Start opens the first stream synchronously so a misconfigured event set
// fails here. Later losses are recovered by reopening in the background.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServiceAlreadyStarted
	}

	stream, err := chainstream.Open(ctx, s.source, s.events, s.cfg.streamOpts...)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(logger.Derive(context.WithoutCancel(ctx), "component", "eventcache"))
	s.started = true
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.run(runCtx, stream)

	return nil
}

func (s *service) run(ctx context.Context, stream *chainstream.Stream) {
	defer close(s.stopped)

	for {
		s.record(ctx, stream)
		stream.Close()

		if ctx.Err() != nil {
			return
		}
		logger.Error(ctx, "event cache stream lost", "error", stream.Err())

		if stream = s.reopen(ctx); stream == nil {
			return
		}
	}
}

func (s *service) reopen(ctx context.Context) *chainstream.Stream {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.restartDelay):
		}

		stream, err := chainstream.Open(ctx, s.source, s.events, s.cfg.streamOpts...)
		if err == nil {
			logger.Info(ctx, "event cache stream reopened")
			return stream
		}
		logger.Warn(ctx, "event cache stream reopen failed", "error", err)
	}
}

// record saves every message until the stream stops or ctx is done.
func (s *service) record(ctx context.Context, stream *chainstream.Stream) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stream.Done():
			return
		case msg, ok := <-stream.Messages():
			if !ok {
				return
			}

			snapshot := Snapshot{Message: msg, ReceivedAt: s.cfg.now().UTC()}
			if err := s.cfg.storage.SaveSnapshot(ctx, snapshot); err != nil {
				logger.Warn(ctx, "failed to save event snapshot", "event", msg.Event.String(), "error", err)
			}
		}
	}
}

func (s *service) Last(ctx context.Context, typ event.Type) (Snapshot, error) {
	return s.cfg.storage.LoadSnapshot(ctx, typ)
}

func (s *service) Close() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-stopped
}
