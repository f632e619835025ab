package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int
	live   atomic.Bool
	closed atomic.Bool
}

func newFakeConn(id int) *fakeConn {
	c := &fakeConn{id: id}
	c.live.Store(true)
	return c
}

func (c *fakeConn) IsLive() bool { return c.live.Load() }

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	c.live.Store(false)
	return nil
}

type countingFactory struct {
	calls atomic.Int32
	err   error
}

func (f *countingFactory) build(_ context.Context, meta string) (*fakeConn, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return newFakeConn(int(n)), nil
}

func TestPool_Get(t *testing.T) {
	t.Run("should return the current value while it is live", func(t *testing.T) {
		initial := newFakeConn(0)
		factory := &countingFactory{}
		p := New("ws://node:17110", initial, factory.build)

		h, err := p.Get(t.Context())
		require.NoError(t, err)
		defer h.Release()

		assert.Same(t, initial, h.Value())
		assert.Zero(t, factory.calls.Load())
	})

	t.Run("should serve concurrent readers without rebuilding", func(t *testing.T) {
		const readers = 16

		initial := newFakeConn(0)
		factory := &countingFactory{}
		p := New("ws://node:17110", initial, factory.build)

		var acquired, done sync.WaitGroup
		release := make(chan struct{})
		errs := make(chan error, readers)

		acquired.Add(readers)
		done.Add(readers)
		for range readers {
			go func() {
				defer done.Done()

				h, err := p.Get(context.Background())
				acquired.Done()
				if err != nil {
					errs <- err
					return
				}
				defer h.Release()

				if h.Value() != initial {
					errs <- errors.New("unexpected value")
				}
				<-release
			}()
		}

		acquired.Wait()
		close(release)
		done.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.Zero(t, factory.calls.Load())
		assert.False(t, initial.closed.Load())
	})

	t.Run("should rebuild a dead value exactly once and close the old one", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)
		factory := &countingFactory{}
		p := New("ws://node:17110", initial, factory.build)

		h, err := p.Get(t.Context())
		require.NoError(t, err)

		assert.Equal(t, 1, h.Value().id)
		assert.True(t, initial.closed.Load())
		assert.Equal(t, int32(1), factory.calls.Load())
		h.Release()

		h, err = p.Get(t.Context())
		require.NoError(t, err)
		defer h.Release()

		assert.Equal(t, 1, h.Value().id)
		assert.Equal(t, int32(1), factory.calls.Load())
	})

	t.Run("should pass the metadata to the factory", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)

		var seen string
		p := New("grpc://node:16110", initial, func(_ context.Context, meta string) (*fakeConn, error) {
			seen = meta
			return newFakeConn(1), nil
		})

		h, err := p.Get(t.Context())
		require.NoError(t, err)
		h.Release()

		assert.Equal(t, "grpc://node:16110", seen)
		assert.Equal(t, "grpc://node:16110", p.Meta())
	})

	t.Run("should wrap factory errors as unreachable", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)
		dialErr := errors.New("connection refused")
		factory := &countingFactory{err: dialErr}
		p := New("ws://node:17110", initial, factory.build)

		h, err := p.Get(t.Context())

		assert.Nil(t, h)
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.ErrorIs(t, err, dialErr)
		assert.False(t, initial.closed.Load())
	})

	t.Run("should not retry a failed rebuild", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)
		factory := &countingFactory{err: errors.New("connection refused")}
		p := New("ws://node:17110", initial, factory.build)

		_, err := p.Get(t.Context())
		require.Error(t, err)
		assert.Equal(t, int32(1), factory.calls.Load())

		_, err = p.Get(t.Context())
		require.Error(t, err)
		assert.Equal(t, int32(2), factory.calls.Load())
	})

	t.Run("should report busy while a writer holds the pool", func(t *testing.T) {
		p := New("ws://node:17110", newFakeConn(0), (&countingFactory{}).build)

		p.mu.Lock()
		h, err := p.Get(t.Context())
		p.mu.Unlock()

		assert.Nil(t, h)
		assert.ErrorIs(t, err, ErrBusy)
	})

	t.Run("should wait for outstanding handles before rebuilding", func(t *testing.T) {
		initial := newFakeConn(0)
		factory := &countingFactory{}
		p := New("ws://node:17110", initial, factory.build)

		held, err := p.Get(t.Context())
		require.NoError(t, err)

		initial.live.Store(false)

		result := make(chan *Handle[*fakeConn], 1)
		go func() {
			h, err := p.Get(context.Background())
			if err == nil {
				result <- h
			}
			close(result)
		}()

		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, factory.calls.Load())

		held.Release()

		select {
		case h, ok := <-result:
			require.True(t, ok)
			assert.Equal(t, 1, h.Value().id)
			h.Release()
		case <-time.After(time.Second):
			t.Fatal("rebuild did not complete")
		}
	})

	t.Run("should finish the rebuild after the caller gives up", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)

		unblock := make(chan struct{})
		fresh := newFakeConn(1)
		p := New("ws://node:17110", initial, func(ctx context.Context, _ string) (*fakeConn, error) {
			<-unblock
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return fresh, nil
		})

		ctx, cancel := context.WithCancel(t.Context())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		h, err := p.Get(ctx)
		assert.Nil(t, h)
		assert.ErrorIs(t, err, context.Canceled)

		close(unblock)

		assert.Eventually(t, func() bool {
			return p.IsLive()
		}, time.Second, 10*time.Millisecond)

		h, err = p.Get(t.Context())
		require.NoError(t, err)
		defer h.Release()
		assert.Same(t, fresh, h.Value())
		assert.True(t, initial.closed.Load())
	})

	t.Run("should bound a rebuild with the reconnect timeout", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)

		p := New("ws://node:17110", initial, func(ctx context.Context, _ string) (*fakeConn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, WithReconnectTimeout(20*time.Millisecond))

		_, err := p.Get(t.Context())
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestPool_IsLive(t *testing.T) {
	t.Run("should reflect the current value", func(t *testing.T) {
		conn := newFakeConn(0)
		p := New("ws://node:17110", conn, (&countingFactory{}).build)

		assert.True(t, p.IsLive())
		conn.live.Store(false)
		assert.False(t, p.IsLive())
	})

	t.Run("should be false while a writer holds the pool", func(t *testing.T) {
		p := New("ws://node:17110", newFakeConn(0), (&countingFactory{}).build)

		p.mu.Lock()
		defer p.mu.Unlock()
		assert.False(t, p.IsLive())
	})
}

func TestPool_Close(t *testing.T) {
	t.Run("should close the current value without rebuilding", func(t *testing.T) {
		initial := newFakeConn(0)
		initial.live.Store(false)
		factory := &countingFactory{}
		p := New("ws://node:17110", initial, factory.build)

		require.NoError(t, p.Close())

		assert.True(t, initial.closed.Load())
		assert.Zero(t, factory.calls.Load())
	})

	t.Run("should wait for outstanding handles", func(t *testing.T) {
		initial := newFakeConn(0)
		p := New("ws://node:17110", initial, (&countingFactory{}).build)

		h, err := p.Get(t.Context())
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = p.Close()
		}()

		select {
		case <-done:
			t.Fatal("close returned while a handle was held")
		case <-time.After(50 * time.Millisecond):
		}

		h.Release()
		<-done
		assert.True(t, initial.closed.Load())
	})
}

func TestHandle_Release(t *testing.T) {
	t.Run("should be idempotent", func(t *testing.T) {
		p := New("ws://node:17110", newFakeConn(0), (&countingFactory{}).build)

		h, err := p.Get(t.Context())
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			h.Release()
			h.Release()
		})

		assert.True(t, p.mu.TryLock())
		p.mu.Unlock()
	})
}
