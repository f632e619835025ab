// Package pool keeps one healthy instance of a resource alive and rebuilds it
// on demand when it is found dead.
package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrBusy is returned when a reconstruction holds the pool. Retrying
	// shortly is safe.
	ErrBusy = errors.New("pool busy")

	// ErrUnreachable wraps the error of a failed reconstruction.
	ErrUnreachable = errors.New("resource unreachable")
)

// HealthChecker reports whether a resource can still be used.
type HealthChecker interface {
	IsLive() bool
}

// Factory builds a new resource from the pool metadata (e.g. a node URL).
type Factory[T HealthChecker] func(ctx context.Context, meta string) (T, error)

type config struct {
	reconnectTimeout time.Duration
	tracer           trace.Tracer
}

// Option configures a Pool.
type Option func(*config)

// WithReconnectTimeout bounds a single reconstruction. Zero disables the
// bound. Default: 30 seconds.
func WithReconnectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.reconnectTimeout = d
	}
}

// WithTracer sets the tracer used for reconstruction spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// Pool holds one resource behind a read/write lock. Readers never observe a
// resource under construction and at most one reconstruction runs at a time.
type Pool[T HealthChecker] struct {
	meta    string
	factory Factory[T]
	cfg     config

	mu    sync.RWMutex
	value T
}

// New creates a pool around initial, which must be a usable (non-nil) value.
func New[T HealthChecker](meta string, initial T, factory Factory[T], opts ...Option) *Pool[T] {
	cfg := config{
		reconnectTimeout: 30 * time.Second,
		tracer:           otel.Tracer("github.com/gabapcia/chainscan/internal/pool"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Pool[T]{
		meta:    meta,
		factory: factory,
		cfg:     cfg,
		value:   initial,
	}
}

// Meta returns the metadata the pool rebuilds its resource from.
func (p *Pool[T]) Meta() string {
	return p.meta
}

// Get returns a read handle on a live resource. The handle must be released
// as soon as the caller is done with it.
//
// When the current resource is not live, Get rebuilds it under the exclusive
// lock. The rebuild is detached from ctx: a caller whose ctx ends gets
// ctx.Err() while the rebuild completes and is stored in the background.
// Callers that queue behind a rebuild each perform their own.
//
// ErrBusy is returned when the read lock cannot be taken because a writer
// holds it; ErrUnreachable when the rebuild fails. Get never retries.
func (p *Pool[T]) Get(ctx context.Context) (*Handle[T], error) {
	if !p.mu.TryRLock() {
		metrics.PoolBusy.Inc()
		return nil, ErrBusy
	}

	if p.value.IsLive() {
		return newHandle(p.value, p.mu.RUnlock), nil
	}
	p.mu.RUnlock()

	done := make(chan error, 1)
	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		done <- p.reconstruct(context.WithoutCancel(ctx))
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	if !p.mu.TryRLock() {
		metrics.PoolBusy.Inc()
		return nil, ErrBusy
	}
	return newHandle(p.value, p.mu.RUnlock), nil
}

// IsLive reports the liveness of the current resource without rebuilding it.
// It returns false while a rebuild holds the pool.
func (p *Pool[T]) IsLive() bool {
	if !p.mu.TryRLock() {
		return false
	}
	defer p.mu.RUnlock()
	return p.value.IsLive()
}

// Close waits for outstanding handles and closes the current resource when it
// is an io.Closer. The pool must not be used afterwards.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := any(p.value).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// reconstruct must be called with the write lock held.
func (p *Pool[T]) reconstruct(ctx context.Context) error {
	ctx, span := p.cfg.tracer.Start(ctx, "pool.reconnect", trace.WithAttributes(attribute.String("pool.meta", p.meta)))
	defer span.End()

	if p.cfg.reconnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.reconnectTimeout)
		defer cancel()
	}

	fresh, err := p.factory(ctx, p.meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconnect failed")
		metrics.PoolReconnects.WithLabelValues("failure").Inc()
		logger.Warn(ctx, "pool reconnect failed", "meta", p.meta, "error", err)
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	old := p.value
	p.value = fresh
	metrics.PoolReconnects.WithLabelValues("success").Inc()
	logger.Info(ctx, "pool resource replaced", "meta", p.meta)

	if closer, ok := any(old).(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Debug(ctx, "closing replaced resource", "error", err)
		}
	}

	return nil
}

// Handle is a read lease on the pooled resource.
type Handle[T any] struct {
	value   T
	release func()
	once    sync.Once
}

func newHandle[T any](value T, release func()) *Handle[T] {
	return &Handle[T]{value: value, release: release}
}

// Value returns the leased resource. It must not be used after Release.
func (h *Handle[T]) Value() T {
	return h.value
}

// Release returns the lease. Only the first call has an effect.
func (h *Handle[T]) Release() {
	h.once.Do(h.release)
}
