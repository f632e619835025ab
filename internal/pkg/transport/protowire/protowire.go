// Package protowire carries envelope messages over a single bidirectional
// gRPC stream. Messages are encoded as google.protobuf.Struct so no generated
// stubs are needed on either side.
package protowire

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the gRPC service exposing the message stream.
	ServiceName = "protowire.RPC"

	// MethodName is the bidirectional streaming method.
	MethodName = "MessageStream"

	fullMethod = "/" + ServiceName + "/" + MethodName
)

var streamDesc = grpc.StreamDesc{
	StreamName:    MethodName,
	ServerStreams: true,
	ClientStreams: true,
}

// Encode converts an envelope message into its wire form.
func Encode(msg envelope.Message) (*structpb.Struct, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return out, nil
}

// Decode converts a wire message back into an envelope message.
func Decode(in *structpb.Struct) (envelope.Message, error) {
	var msg envelope.Message

	data, err := protojson.Marshal(in)
	if err != nil {
		return msg, fmt.Errorf("decode struct: %w", err)
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode envelope: %w", err)
	}
	return msg, nil
}

// StreamHandler serves one client stream on the server side.
type StreamHandler func(stream grpc.ServerStream) error

// Register exposes handler as the MessageStream method of s.
func Register(s *grpc.Server, handler StreamHandler) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    MethodName,
			ServerStreams: true,
			ClientStreams: true,
			Handler: func(_ any, stream grpc.ServerStream) error {
				return handler(stream)
			},
		}},
		Metadata: "protowire.proto",
	}, struct{}{})
}

type config struct {
	tls                *tls.Config
	dialOptions        []grpc.DialOption
	notificationBuffer int
}

// Option configures a Conn.
type Option func(*config)

// WithTLS enables transport security with the given configuration.
func WithTLS(cfg *tls.Config) Option {
	return func(c *config) {
		c.tls = cfg
	}
}

// WithDialOptions appends raw gRPC dial options (e.g. a custom dialer).
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *config) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// WithNotificationBuffer sets how many notifications may be queued before the
// receive loop waits for the consumer. Default: 256.
func WithNotificationBuffer(n int) Option {
	return func(c *config) {
		c.notificationBuffer = n
	}
}

// Conn is an envelope session over one gRPC client connection and stream.
type Conn struct {
	cc     *grpc.ClientConn
	stream grpc.ClientStream
	cancel context.CancelFunc

	sendMu     sync.Mutex
	mux        *envelope.Mux
	streamOpen atomic.Bool
}

// Dial connects to addr (host:port) and opens the message stream. ctx bounds
// connection establishment only.
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	cfg := config{notificationBuffer: 256}
	for _, opt := range opts {
		opt(&cfg)
	}

	creds := insecure.NewCredentials()
	if cfg.tls != nil {
		creds = credentials.NewTLS(cfg.tls)
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, cfg.dialOptions...)

	// One node, one address: skip name resolution.
	cc, err := grpc.NewClient("passthrough:///"+addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	stream, err := cc.NewStream(streamCtx, &streamDesc, fullMethod)
	stop()
	if err != nil {
		cancel()
		cc.Close()
		return nil, fmt.Errorf("open message stream: %w", err)
	}

	c := &Conn{
		cc:     cc,
		stream: stream,
		cancel: cancel,
		mux:    envelope.NewMux(cfg.notificationBuffer),
	}
	c.streamOpen.Store(true)

	go c.recvLoop()
	return c, nil
}

func (c *Conn) recvLoop() {
	ctx := context.Background()

	for {
		in := new(structpb.Struct)
		if err := c.stream.RecvMsg(in); err != nil {
			c.streamOpen.Store(false)
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			c.mux.Shutdown(fmt.Errorf("%w: %w", envelope.ErrClosed, err))
			return
		}

		msg, err := Decode(in)
		if err != nil {
			logger.Warn(ctx, "discarding malformed message", "error", err)
			continue
		}

		c.mux.Deliver(msg)
	}
}

func (c *Conn) send(msg envelope.Message) error {
	out, err := Encode(msg)
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.stream.SendMsg(out); err != nil {
		c.streamOpen.Store(false)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Call sends method with params and returns the raw result.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return c.mux.Call(ctx, c.send, method, params)
}

// Notifications returns the stream of messages pushed by the server.
func (c *Conn) Notifications() <-chan envelope.Message {
	return c.mux.Notifications()
}

// Done is closed when the stream is gone.
func (c *Conn) Done() <-chan struct{} {
	return c.mux.Done()
}

// State returns the connectivity state of the underlying channel.
func (c *Conn) State() connectivity.State {
	return c.cc.GetState()
}

// IsLive reports whether the channel is Ready or Idle and the stream is still open.
func (c *Conn) IsLive() bool {
	if !c.streamOpen.Load() {
		return false
	}

	switch c.cc.GetState() {
	case connectivity.Ready, connectivity.Idle:
		return true
	default:
		return false
	}
}

// Close ends the stream and the client connection.
func (c *Conn) Close() error {
	c.streamOpen.Store(false)

	c.sendMu.Lock()
	_ = c.stream.CloseSend()
	c.sendMu.Unlock()

	c.cancel()
	c.mux.Shutdown(envelope.ErrClosed)
	return c.cc.Close()
}
