package eventcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/listener"
	"github.com/gabapcia/chainscan/internal/pkg/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscriber struct{}

func (stubSubscriber) Subscribe(_ context.Context, typ event.Type) (string, error) {
	return typ.String(), nil
}

func (stubSubscriber) Unsubscribe(context.Context, event.Type, string) error { return nil }

func newManager(t *testing.T, events ...event.Type) *listener.Manager {
	t.Helper()

	m, err := listener.NewManager(t.Context(), stubSubscriber{}, events, 16)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

var errUnavailable = errors.New("node unavailable")

type switchSource struct {
	current   atomic.Pointer[listener.Manager]
	available atomic.Bool
}

func newSwitchSource(m *listener.Manager) *switchSource {
	s := &switchSource{}
	s.current.Store(m)
	s.available.Store(true)
	return s
}

func (s *switchSource) Receiver(_ context.Context, typ event.Type) (*listener.Receiver, error) {
	if !s.available.Load() {
		return nil, errUnavailable
	}
	return s.current.Load().Get(typ)
}

func fastStream() Option {
	return WithStreamOptions(chainstream.WithRetry(retry.New(
		retry.WithAttempts(1),
		retry.WithDelay(time.Millisecond),
	)))
}

func TestService_Start(t *testing.T) {
	t.Run("should fail for events the source does not have", func(t *testing.T) {
		src := newSwitchSource(newManager(t, event.BlockAdded))
		svc := New(src, []event.Type{event.BlockAdded, event.NewBlockTemplate})

		err := svc.Start(t.Context())

		assert.ErrorIs(t, err, listener.ErrNotFound)
		svc.Close()
	})

	t.Run("should refuse a second start", func(t *testing.T) {
		src := newSwitchSource(newManager(t, event.BlockAdded))
		svc := New(src, []event.Type{event.BlockAdded})

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		assert.ErrorIs(t, svc.Start(t.Context()), ErrServiceAlreadyStarted)
	})
}

func TestService_Last(t *testing.T) {
	t.Run("should report types without notifications", func(t *testing.T) {
		src := newSwitchSource(newManager(t, event.BlockAdded))
		svc := New(src, []event.Type{event.BlockAdded})

		_, err := svc.Last(t.Context(), event.BlockAdded)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should keep the latest notification per type", func(t *testing.T) {
		m := newManager(t, event.BlockAdded, event.SinkBlueScoreChanged)
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		svc := New(newSwitchSource(m), []event.Type{event.BlockAdded, event.SinkBlueScoreChanged})
		svc.cfg.now = func() time.Time { return fixed }

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		m.Dispatch(event.SinkBlueScoreChangedNotification{SinkBlueScore: 1})
		m.Dispatch(event.SinkBlueScoreChangedNotification{SinkBlueScore: 2})

		require.Eventually(t, func() bool {
			s, err := svc.Last(t.Context(), event.SinkBlueScoreChanged)
			return err == nil && s.Message.Content == event.SinkBlueScoreChangedNotification{SinkBlueScore: 2}
		}, time.Second, 5*time.Millisecond)

		s, err := svc.Last(t.Context(), event.SinkBlueScoreChanged)
		require.NoError(t, err)
		assert.Equal(t, event.SinkBlueScoreChanged, s.Message.Event)
		assert.Equal(t, fixed, s.ReceivedAt)

		_, err = svc.Last(t.Context(), event.BlockAdded)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should reopen the stream after losing it", func(t *testing.T) {
		first := newManager(t, event.BlockAdded)
		src := newSwitchSource(first)

		svc := New(src, []event.Type{event.BlockAdded}, fastStream(), WithRestartDelay(10*time.Millisecond))
		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		src.available.Store(false)
		first.Close()

		second := newManager(t, event.BlockAdded)
		src.current.Store(second)
		time.Sleep(30 * time.Millisecond)
		src.available.Store(true)

		l, ok := second.Listener(event.BlockAdded)
		require.True(t, ok)
		require.Eventually(t, func() bool { return l.ReceiverCount() == 1 }, 2*time.Second, 5*time.Millisecond)

		second.Dispatch(event.BlockAddedNotification{Block: event.Block{Header: event.BlockHeader{Hash: "b2"}}})

		require.Eventually(t, func() bool {
			s, err := svc.Last(t.Context(), event.BlockAdded)
			return err == nil && s.Message.Content.(event.BlockAddedNotification).Block.Header.Hash == "b2"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("should keep snapshots readable after close", func(t *testing.T) {
		m := newManager(t, event.VirtualDaaScoreChanged)
		svc := New(newSwitchSource(m), []event.Type{event.VirtualDaaScoreChanged})
		require.NoError(t, svc.Start(t.Context()))

		m.Dispatch(event.VirtualDaaScoreChangedNotification{VirtualDaaScore: 9})
		require.Eventually(t, func() bool {
			_, err := svc.Last(t.Context(), event.VirtualDaaScoreChanged)
			return err == nil
		}, time.Second, 5*time.Millisecond)

		svc.Close()
		svc.Close()

		s, err := svc.Last(t.Context(), event.VirtualDaaScoreChanged)
		require.NoError(t, err)
		assert.Equal(t, event.VirtualDaaScoreChangedNotification{VirtualDaaScore: 9}, s.Message.Content)
	})
}

func TestMemoryStorage(t *testing.T) {
	t.Run("should replace the snapshot of the same type", func(t *testing.T) {
		st := NewMemoryStorage()

		require.NoError(t, st.SaveSnapshot(t.Context(), Snapshot{Message: event.NewMessage(event.SinkBlueScoreChangedNotification{SinkBlueScore: 1})}))
		require.NoError(t, st.SaveSnapshot(t.Context(), Snapshot{Message: event.NewMessage(event.SinkBlueScoreChangedNotification{SinkBlueScore: 5})}))

		s, err := st.LoadSnapshot(t.Context(), event.SinkBlueScoreChanged)
		require.NoError(t, err)
		assert.Equal(t, event.SinkBlueScoreChangedNotification{SinkBlueScore: 5}, s.Message.Content)

		_, err = st.LoadSnapshot(t.Context(), event.BlockAdded)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
