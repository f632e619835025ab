package fanout

import "github.com/gabapcia/chainscan/internal/event"

// Inbound message types.
const (
	typePing        = "ping"
	typeSubscribe   = "subscribe"
	typeUnsubscribe = "unsubscribe"
)

// Outbound message types. Event messages use the {event, content} shape of
// event.Message instead.
const (
	typePong  = "pong"
	typeAck   = "ack"
	typeError = "error"
)

// request is a frame sent by the browser.
type request struct {
	Type   string   `json:"type"`
	Events []string `json:"events,omitempty"`
}

// reply answers a request or reports a session failure.
type reply struct {
	Type      string       `json:"type"`
	Action    string       `json:"action,omitempty"`
	Events    []event.Type `json:"events,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
	Message   string       `json:"message,omitempty"`
}
