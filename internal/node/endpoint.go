package node

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned for node URLs whose scheme selects no protocol.
	ErrUnsupportedScheme = errors.New("unsupported node url scheme")

	// ErrInvalidEndpoint is returned for node URLs that cannot be parsed.
	ErrInvalidEndpoint = errors.New("invalid node endpoint")
)

// Protocol is the wire protocol used to reach the node.
type Protocol uint8

const (
	// ProtocolGRPC is the binary RPC protocol over gRPC.
	ProtocolGRPC Protocol = iota + 1
	// ProtocolWRPC is the JSON RPC protocol over WebSocket.
	ProtocolWRPC
)

func (p Protocol) String() string {
	switch p {
	case ProtocolGRPC:
		return "grpc"
	case ProtocolWRPC:
		return "wrpc"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

// Endpoint is a parsed node URL.
type Endpoint struct {
	Protocol Protocol

	// Address is host:port for gRPC and the full ws:// or wss:// URL for wRPC.
	Address string

	// TLS reports whether the gRPC channel must be secured (https scheme).
	TLS bool

	raw string
}

// String returns the URL the endpoint was parsed from.
func (e Endpoint) String() string {
	return e.raw
}

// ParseEndpoint selects the protocol from the scheme of raw:
//
//	grpc://, http://   gRPC
//	https://           gRPC over TLS
//	ws://, wss://      wRPC
//	host:port          wRPC
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty url", ErrInvalidEndpoint)
	}

	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return Endpoint{}, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, raw, err)
		}
		return Endpoint{Protocol: ProtocolWRPC, Address: "ws://" + raw, raw: raw}, nil
	}

	if rest == "" {
		return Endpoint{}, fmt.Errorf("%w: %q has no host", ErrInvalidEndpoint, raw)
	}

	switch strings.ToLower(scheme) {
	case "grpc", "http":
		return Endpoint{Protocol: ProtocolGRPC, Address: strings.TrimSuffix(rest, "/"), raw: raw}, nil
	case "https":
		return Endpoint{Protocol: ProtocolGRPC, Address: strings.TrimSuffix(rest, "/"), TLS: true, raw: raw}, nil
	case "ws", "wss":
		return Endpoint{Protocol: ProtocolWRPC, Address: raw, raw: raw}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}
