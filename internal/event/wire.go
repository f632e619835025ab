package event

import (
	"encoding/json"
	"fmt"
)

// Message is the frame pushed to socket clients for every notification.
type Message struct {
	Event   Type         `json:"event"`
	Content Notification `json:"content"`
}

// NewMessage wraps n into its outbound frame.
func NewMessage(n Notification) Message {
	return Message{Event: n.Type(), Content: n}
}

// UnmarshalJSON decodes a frame, picking the payload type from the event tag.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Event   Type            `json:"event"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode event message: %w", err)
	}

	content, err := Decode(raw.Event, raw.Content)
	if err != nil {
		return err
	}

	m.Event = raw.Event
	m.Content = content
	return nil
}
