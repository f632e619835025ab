package node

import (
	"context"
	"crypto/tls"
	"encoding/json"

	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"
	"github.com/gabapcia/chainscan/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainscan/internal/pkg/transport/protowire"
)

// transport is implemented only by the gRPC and wRPC variants below.
type transport interface {
	call(ctx context.Context, method string, params any) (json.RawMessage, error)
	notifications() <-chan envelope.Message
	done() <-chan struct{}
	isLive() bool
	close() error
}

type grpcTransport struct {
	conn *protowire.Conn
}

func dialGRPC(ctx context.Context, ep Endpoint, cfg config) (*grpcTransport, error) {
	opts := []protowire.Option{
		protowire.WithDialOptions(cfg.grpcDialOptions...),
	}
	if ep.TLS {
		tlsCfg := cfg.tls
		if tlsCfg == nil {
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opts = append(opts, protowire.WithTLS(tlsCfg))
	}

	conn, err := protowire.Dial(ctx, ep.Address, opts...)
	if err != nil {
		return nil, err
	}
	return &grpcTransport{conn: conn}, nil
}

func (t *grpcTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return t.conn.Call(ctx, method, params)
}

func (t *grpcTransport) notifications() <-chan envelope.Message { return t.conn.Notifications() }
func (t *grpcTransport) done() <-chan struct{}                  { return t.conn.Done() }

// isLive reflects the gRPC channel connectivity state and the stream.
func (t *grpcTransport) isLive() bool { return t.conn.IsLive() }
func (t *grpcTransport) close() error { return t.conn.Close() }

type wrpcTransport struct {
	conn *jsonrpc.Conn
}

func dialWRPC(ctx context.Context, ep Endpoint, cfg config) (*wrpcTransport, error) {
	var opts []jsonrpc.Option
	if cfg.wsDialer != nil {
		opts = append(opts, jsonrpc.WithDialer(cfg.wsDialer))
	}

	conn, err := jsonrpc.Dial(ctx, ep.Address, opts...)
	if err != nil {
		return nil, err
	}
	return &wrpcTransport{conn: conn}, nil
}

func (t *wrpcTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return t.conn.Call(ctx, method, params)
}

func (t *wrpcTransport) notifications() <-chan envelope.Message { return t.conn.Notifications() }
func (t *wrpcTransport) done() <-chan struct{}                  { return t.conn.Done() }

// isLive is the flag kept by the connection: set on connect, cleared on
// read error, write failure and close.
func (t *wrpcTransport) isLive() bool { return t.conn.IsLive() }
func (t *wrpcTransport) close() error { return t.conn.Close() }

func dial(ctx context.Context, ep Endpoint, cfg config) (transport, error) {
	switch ep.Protocol {
	case ProtocolGRPC:
		t, err := dialGRPC(ctx, ep, cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ProtocolWRPC:
		t, err := dialWRPC(ctx, ep, cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, ErrUnsupportedScheme
	}
}
