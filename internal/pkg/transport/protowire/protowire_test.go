package protowire

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// startServer serves handler over an in-memory listener and returns dial options for it.
func startServer(t *testing.T, handler StreamHandler) (*grpc.Server, Option) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, handler)

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}
	return srv, WithDialOptions(grpc.WithContextDialer(dialer))
}

func echoHandler(stream grpc.ServerStream) error {
	for {
		in := new(structpb.Struct)
		if err := stream.RecvMsg(in); err != nil {
			return nil
		}

		req, err := Decode(in)
		if err != nil {
			return err
		}

		result, _ := json.Marshal(map[string]string{"method": req.Method})
		out, err := Encode(envelope.Message{ID: req.ID, Result: result})
		if err != nil {
			return err
		}
		if err := stream.SendMsg(out); err != nil {
			return nil
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Run("should preserve the envelope fields", func(t *testing.T) {
		in := envelope.Message{
			ID:     "1",
			Method: "notify",
			Params: json.RawMessage(`{"scope":"blockAdded","command":"start"}`),
		}

		wire, err := Encode(in)
		require.NoError(t, err)
		assert.Equal(t, "notify", wire.Fields["method"].GetStringValue())

		out, err := Decode(wire)
		require.NoError(t, err)
		assert.Equal(t, in.ID, out.ID)
		assert.Equal(t, in.Method, out.Method)
		assert.JSONEq(t, string(in.Params), string(out.Params))
	})
}

func TestDial(t *testing.T) {
	t.Run("should open a live stream", func(t *testing.T) {
		_, opt := startServer(t, echoHandler)

		conn, err := Dial(t.Context(), "bufnet", opt)
		require.NoError(t, err)
		defer conn.Close()

		assert.True(t, conn.IsLive())
	})

	t.Run("should fail when the server is unreachable", func(t *testing.T) {
		dialer := func(ctx context.Context, _ string) (net.Conn, error) {
			return nil, assert.AnError
		}

		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
		defer cancel()

		_, err := Dial(ctx, "bufnet", WithDialOptions(grpc.WithContextDialer(dialer)))
		assert.Error(t, err)
	})
}

func TestConn_Call(t *testing.T) {
	t.Run("should return the server result", func(t *testing.T) {
		_, opt := startServer(t, echoHandler)

		conn, err := Dial(t.Context(), "bufnet", opt)
		require.NoError(t, err)
		defer conn.Close()

		res, err := conn.Call(t.Context(), "getSinkBlueScore", nil)

		require.NoError(t, err)
		assert.JSONEq(t, `{"method":"getSinkBlueScore"}`, string(res))
	})
}

func TestConn_Notifications(t *testing.T) {
	t.Run("should expose pushed messages", func(t *testing.T) {
		_, opt := startServer(t, func(stream grpc.ServerStream) error {
			out, _ := Encode(envelope.Message{Method: "virtualDaaScoreChangedNotification", Params: json.RawMessage(`{"virtualDaaScore":42}`)})
			if err := stream.SendMsg(out); err != nil {
				return err
			}
			<-stream.Context().Done()
			return nil
		})

		conn, err := Dial(t.Context(), "bufnet", opt)
		require.NoError(t, err)
		defer conn.Close()

		select {
		case msg := <-conn.Notifications():
			assert.Equal(t, "virtualDaaScoreChangedNotification", msg.Method)
			assert.JSONEq(t, `{"virtualDaaScore":42}`, string(msg.Params))
		case <-time.After(2 * time.Second):
			t.Fatal("notification not received")
		}
	})
}

func TestConn_IsLive(t *testing.T) {
	t.Run("should report not live once the server ends the stream", func(t *testing.T) {
		_, opt := startServer(t, func(stream grpc.ServerStream) error {
			return nil
		})

		conn, err := Dial(t.Context(), "bufnet", opt)
		require.NoError(t, err)
		defer conn.Close()

		select {
		case <-conn.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("stream not closed")
		}
		assert.False(t, conn.IsLive())
	})

	t.Run("should report not live after close", func(t *testing.T) {
		_, opt := startServer(t, echoHandler)

		conn, err := Dial(t.Context(), "bufnet", opt)
		require.NoError(t, err)

		conn.Close()
		assert.False(t, conn.IsLive())
	})
}
