// Package nodetest provides an in-process fake chain node speaking both the
// gRPC and the WebSocket JSON RPC protocols.
package nodetest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/transport/envelope"
	"github.com/gabapcia/chainscan/internal/pkg/transport/protowire"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// HandlerFunc answers one call. Returning a non-nil error object sends it
// instead of the result.
type HandlerFunc func(params json.RawMessage) (any, *envelope.Error)

type session struct {
	send  func(envelope.Message) error
	close func()

	mu     sync.Mutex
	scopes map[string]string
}

// Node is a fake node. Every connection keeps its own subscriptions.
type Node struct {
	mu        sync.Mutex
	handlers  map[string]HandlerFunc
	rejected  map[string]bool
	sessions  map[*session]struct{}
	nextID    int
	accepting bool

	connections atomic.Int32
}

// New returns a fake node accepting connections.
func New() *Node {
	return &Node{
		handlers:  make(map[string]HandlerFunc),
		rejected:  make(map[string]bool),
		sessions:  make(map[*session]struct{}),
		accepting: true,
	}
}

// Handle registers the answer for method.
func (n *Node) Handle(method string, fn HandlerFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = fn
}

// RejectScope makes subscriptions to scope fail.
func (n *Node) RejectScope(scope string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected[scope] = true
}

// SetAccepting toggles whether new connections are served.
func (n *Node) SetAccepting(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepting = v
}

// Connections returns how many connections were accepted so far.
func (n *Node) Connections() int {
	return int(n.connections.Load())
}

// Subscribers returns how many open connections are subscribed to typ.
func (n *Node) Subscribers(typ event.Type) int {
	count := 0
	for _, s := range n.snapshot() {
		s.mu.Lock()
		if _, ok := s.scopes[typ.Scope()]; ok {
			count++
		}
		s.mu.Unlock()
	}
	return count
}

// Notify pushes payload as a notification of typ to every subscribed connection.
func (n *Node) Notify(typ event.Type, payload any) error {
	params, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := envelope.Message{Method: typ.NotificationName(), Params: params}
	for _, s := range n.snapshot() {
		s.mu.Lock()
		_, ok := s.scopes[typ.Scope()]
		s.mu.Unlock()

		if ok {
			_ = s.send(msg)
		}
	}
	return nil
}

// DropConnections closes every open connection, simulating a node restart.
func (n *Node) DropConnections() {
	for _, s := range n.snapshot() {
		s.close()
	}
}

func (n *Node) snapshot() []*session {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*session, 0, len(n.sessions))
	for s := range n.sessions {
		out = append(out, s)
	}
	return out
}

func (n *Node) attach(s *session) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.accepting {
		return false
	}
	n.sessions[s] = struct{}{}
	n.connections.Add(1)
	return true
}

func (n *Node) detach(s *session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.sessions, s)
}

type notifyParams struct {
	Scope      string `json:"scope"`
	Command    string `json:"command"`
	ListenerID string `json:"listenerId"`
}

func (n *Node) answer(s *session, req envelope.Message) envelope.Message {
	resp := envelope.Message{ID: req.ID}

	if req.Method == "notify" {
		var p notifyParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Error = &envelope.Error{Code: -32602, Message: err.Error()}
			return resp
		}

		n.mu.Lock()
		rejected := n.rejected[p.Scope]
		n.nextID++
		id := fmt.Sprintf("listener-%d", n.nextID)
		n.mu.Unlock()

		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case rejected:
			resp.Error = &envelope.Error{Code: -32000, Message: "scope not supported: " + p.Scope}
		case p.Command == "start":
			s.scopes[p.Scope] = id
			resp.Result, _ = json.Marshal(map[string]string{"listenerId": id})
		case p.Command == "stop":
			delete(s.scopes, p.Scope)
			resp.Result = json.RawMessage(`{}`)
		default:
			resp.Error = &envelope.Error{Code: -32602, Message: "unknown command " + p.Command}
		}
		return resp
	}

	n.mu.Lock()
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	if !ok {
		resp.Error = &envelope.Error{Code: -32601, Message: "method not found"}
		return resp
	}

	result, rpcErr := h(req.Params)
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	if result != nil {
		resp.Result, _ = json.Marshal(result)
	}
	return resp
}

// ServeWebsocket starts a wRPC endpoint and returns its ws:// URL.
func (n *Node) ServeWebsocket(t testing.TB) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var writeMu sync.Mutex
		s := &session{
			scopes: make(map[string]string),
			send: func(msg envelope.Message) error {
				writeMu.Lock()
				defer writeMu.Unlock()
				return ws.WriteJSON(msg)
			},
			close: func() { ws.Close() },
		}

		if !n.attach(s) {
			ws.Close()
			return
		}
		defer n.detach(s)
		defer ws.Close()

		for {
			var req envelope.Message
			if err := ws.ReadJSON(&req); err != nil {
				return
			}
			if err := s.send(n.answer(s, req)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// ServeGRPC starts an in-memory gRPC endpoint. It returns the node URL and
// the dial option routing it to the in-memory listener.
func (n *Node) ServeGRPC(t testing.TB) (string, grpc.DialOption) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()

	protowire.Register(srv, func(stream grpc.ServerStream) error {
		var sendMu sync.Mutex
		kill := make(chan struct{})
		var killOnce sync.Once

		s := &session{
			scopes: make(map[string]string),
			send: func(msg envelope.Message) error {
				out, err := protowire.Encode(msg)
				if err != nil {
					return err
				}
				sendMu.Lock()
				defer sendMu.Unlock()
				return stream.SendMsg(out)
			},
			close: func() { killOnce.Do(func() { close(kill) }) },
		}

		if !n.attach(s) {
			return fmt.Errorf("node not accepting connections")
		}
		defer n.detach(s)

		recvErr := make(chan error, 1)
		go func() {
			for {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					recvErr <- err
					return
				}

				req, err := protowire.Decode(in)
				if err != nil {
					recvErr <- err
					return
				}
				if err := s.send(n.answer(s, req)); err != nil {
					recvErr <- err
					return
				}
			}
		}()

		select {
		case <-kill:
			return fmt.Errorf("connection dropped")
		case <-recvErr:
			return nil
		}
	})

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return "grpc://bufnet", dialer
}
