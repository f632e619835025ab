package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/metrics"
	"github.com/gabapcia/chainscan/internal/pkg/x/chflow"

	"github.com/gorilla/websocket"
)

// session is one browser connection in the Streaming state. The writer loop
// is the only goroutine writing to conn; the reader loop hands it replies.
type session struct {
	id     string
	conn   *websocket.Conn
	stream *chainstream.Stream
	cfg    config

	server  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	replies chan reply
}

func newSession(parent context.Context, id string, conn *websocket.Conn, stream *chainstream.Stream, cfg config) *session {
	ctx, cancel := context.WithCancel(logger.Derive(parent, "session_id", id))
	return &session{
		id:      id,
		conn:    conn,
		stream:  stream,
		cfg:     cfg,
		server:  parent,
		ctx:     ctx,
		cancel:  cancel,
		replies: make(chan reply, 16),
	}
}

// run streams until the socket or the event stream ends. It closes only the
// session's receivers, never the node listeners behind them.
func (s *session) run() {
	metrics.WebsocketSessions.Inc()
	defer metrics.WebsocketSessions.Dec()

	logger.Info(s.ctx, "websocket session started", "events", len(s.stream.Events()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readLoop()
	}()

	err := s.writeLoop()

	s.cancel()
	s.stream.Close()
	s.conn.Close()
	<-done

	if err != nil && !isDisconnect(err) {
		logger.Warn(s.ctx, "websocket session ended", "error", err)
		return
	}
	logger.Debug(s.ctx, "websocket session closed")
}

func (s *session) writeLoop() error {
	ticker := time.NewTicker(s.cfg.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			if s.server.Err() != nil {
				return s.closeFrame(websocket.CloseGoingAway, "server shutting down")
			}
			// The reader saw the socket go away.
			return nil

		case <-s.stream.Done():
			err := s.stream.Err()
			if err == nil {
				return nil
			}
			if werr := s.write(reply{Type: typeError, Message: err.Error()}); werr != nil {
				return werr
			}
			_ = s.closeFrame(websocket.CloseInternalServerErr, "event stream lost")
			return err

		case msg, ok := <-s.stream.Messages():
			if !ok {
				return nil
			}
			if err := s.write(msg); err != nil {
				return err
			}

		case r := <-s.replies:
			if err := s.write(r); err != nil {
				return err
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.writeWait)); err != nil {
				return err
			}
		}
	}
}

func (s *session) write(v any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *session) closeFrame(code int, text string) error {
	msg := websocket.FormatCloseMessage(code, text)
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.writeWait))
}

func (s *session) readLoop() {
	defer s.cancel()

	s.conn.SetReadLimit(s.cfg.readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !isDisconnect(err) && s.ctx.Err() == nil {
				logger.Debug(s.ctx, "websocket read failed", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.pongWait))

		if !chflow.Send(s.ctx, s.replies, s.handle(data)) {
			return
		}
	}
}

// handle answers one inbound frame. Bad frames get an error reply and the
// connection stays open.
func (s *session) handle(data []byte) reply {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return reply{Type: typeError, Message: "malformed message: " + err.Error()}
	}

	switch req.Type {
	case typePing:
		return reply{Type: typePong, Timestamp: time.Now().UnixMilli()}

	case typeSubscribe:
		if err := s.subscribe(req.Events); err != nil {
			return reply{Type: typeError, Action: typeSubscribe, Message: err.Error()}
		}
		return reply{Type: typeAck, Action: typeSubscribe, Events: s.stream.Events()}

	case typeUnsubscribe:
		if err := s.unsubscribe(req.Events); err != nil {
			return reply{Type: typeError, Action: typeUnsubscribe, Message: err.Error()}
		}
		return reply{Type: typeAck, Action: typeUnsubscribe, Events: s.stream.Events()}

	default:
		return reply{Type: typeError, Message: fmt.Sprintf("unknown message type %q", req.Type)}
	}
}

func (s *session) subscribe(names []string) error {
	events, err := event.ParseList(names)
	if err != nil {
		return err
	}

	var errs []error
	for _, typ := range events {
		if err := s.stream.Add(s.ctx, typ); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *session) unsubscribe(names []string) error {
	events, err := event.ParseList(names)
	if err != nil {
		return err
	}

	for _, typ := range events {
		s.stream.Remove(typ)
	}
	return nil
}

func isDisconnect(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	) || errors.Is(err, websocket.ErrCloseSent)
}
