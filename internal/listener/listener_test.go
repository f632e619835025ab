package listener

import (
	"sync"
	"testing"
	"time"

	"github.com/gabapcia/chainscan/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvN(t *testing.T, r *Receiver, n int) []event.Notification {
	t.Helper()

	out := make([]event.Notification, 0, n)
	for range n {
		select {
		case v, ok := <-r.C():
			require.True(t, ok, "receiver closed early")
			out = append(out, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d notifications", len(out))
		}
	}
	return out
}

func TestListener_Publish(t *testing.T) {
	t.Run("should broadcast every notification to every receiver in order", func(t *testing.T) {
		l := newListener("1", event.SinkBlueScoreChanged, 10)
		a, b := l.Subscribe(), l.Subscribe()

		sent := []event.Notification{
			event.SinkBlueScoreChangedNotification{SinkBlueScore: 1},
			event.SinkBlueScoreChangedNotification{SinkBlueScore: 2},
			event.SinkBlueScoreChangedNotification{SinkBlueScore: 3},
		}
		for _, n := range sent {
			assert.Equal(t, 2, l.Publish(n))
		}

		assert.Equal(t, sent, recvN(t, a, 3))
		assert.Equal(t, sent, recvN(t, b, 3))
	})

	t.Run("should drop only for the receiver whose buffer is full", func(t *testing.T) {
		l := newListener("1", event.BlockAdded, 1)
		slow, fast := l.Subscribe(), l.Subscribe()

		first := event.BlockAddedNotification{Block: event.Block{Header: event.BlockHeader{Hash: "a"}}}
		second := event.BlockAddedNotification{Block: event.Block{Header: event.BlockHeader{Hash: "b"}}}

		assert.Equal(t, 2, l.Publish(first))
		assert.Equal(t, first, recvN(t, fast, 1)[0])

		assert.Equal(t, 1, l.Publish(second))
		assert.Equal(t, second, recvN(t, fast, 1)[0])
		assert.Equal(t, first, recvN(t, slow, 1)[0])
	})

	t.Run("should not deliver to receivers attached afterwards", func(t *testing.T) {
		l := newListener("1", event.BlockAdded, 1)
		l.Publish(event.BlockAddedNotification{})

		r := l.Subscribe()
		assert.Empty(t, r.C())
	})

	t.Run("should tolerate concurrent publishers and subscribers", func(t *testing.T) {
		l := newListener("1", event.VirtualDaaScoreChanged, 100)

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				l.Publish(event.VirtualDaaScoreChangedNotification{VirtualDaaScore: uint64(i)})
			}()
			go func() {
				defer wg.Done()
				l.Subscribe().Close()
			}()
		}
		wg.Wait()

		assert.Equal(t, 0, l.ReceiverCount())
	})
}

func TestReceiver_Close(t *testing.T) {
	t.Run("should detach only the closed receiver", func(t *testing.T) {
		l := newListener("1", event.UtxosChanged, 1)
		a, b := l.Subscribe(), l.Subscribe()

		a.Close()
		a.Close()

		_, ok := <-a.C()
		assert.False(t, ok)
		assert.Equal(t, 1, l.ReceiverCount())

		l.Publish(event.UtxosChangedNotification{})
		assert.Len(t, recvN(t, b, 1), 1)
	})

	t.Run("should be safe after the listener closed", func(t *testing.T) {
		l := newListener("1", event.UtxosChanged, 1)
		r := l.Subscribe()

		l.close()

		_, ok := <-r.C()
		assert.False(t, ok)
		assert.NotPanics(t, r.Close)
	})

	t.Run("should hand out closed receivers once the listener closed", func(t *testing.T) {
		l := newListener("1", event.UtxosChanged, 1)
		l.close()

		r := l.Subscribe()

		_, ok := <-r.C()
		assert.False(t, ok)
		assert.Equal(t, event.UtxosChanged, r.Type())
	})
}
