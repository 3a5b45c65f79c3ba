package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedPayload is a non-empty body that is not a JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrAuthRejected is a verification token mismatch.
	ErrAuthRejected = errors.New("verification token mismatch")
)

// TypeURLVerification marks the handshake sent when a callback URL is saved.
const TypeURLVerification = "url_verification"

// EventHeader is the v2 event header.
type EventHeader struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	Token      string `json:"token"`
	CreateTime string `json:"create_time,omitempty"`
	AppID      string `json:"app_id,omitempty"`
	TenantKey  string `json:"tenant_key,omitempty"`
}

// Message is a received chat message. Content is itself JSON, e.g.
// {"text":"Ethereum 0x..."} for text messages.
type Message struct {
	MessageID   string `json:"message_id,omitempty"`
	ChatID      string `json:"chat_id"`
	ChatType    string `json:"chat_type,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	Content     string `json:"content"`
}

// Text extracts the "text" field of the message content. Non-text or
// undecodable content yields "".
func (m *Message) Text() string {
	if m == nil || m.Content == "" {
		return ""
	}
	var c struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(m.Content), &c); err != nil {
		return ""
	}
	return c.Text
}

// Event is a parsed, token-checked callback handed to the Dispatcher.
type Event struct {
	Header  *EventHeader
	Message *Message
	Raw     json.RawMessage
}

// ID is the delivery id used for deduplication.
func (e *Event) ID() string {
	if e == nil || e.Header == nil {
		return ""
	}
	return e.Header.EventID
}

// Type is the event type, e.g. im.message.receive_v1.
func (e *Event) Type() string {
	if e == nil || e.Header == nil {
		return ""
	}
	return e.Header.EventType
}

// payload covers both the handshake and event shapes. The message may sit at
// the top level or under "event", depending on the sender.
type payload struct {
	Type      string          `json:"type"`
	Token     string          `json:"token"`
	Challenge json.RawMessage `json:"challenge"`
	UUID      string          `json:"uuid"`

	Header  *EventHeader `json:"header"`
	Message *Message     `json:"message"`
	Event   *struct {
		Message *Message `json:"message"`
	} `json:"event"`
}

func (p *payload) isHandshake() bool {
	return p.Type == TypeURLVerification
}

func (p *payload) event(raw []byte) *Event {
	ev := &Event{Header: p.Header, Message: p.Message, Raw: raw}
	if ev.Message == nil && p.Event != nil {
		ev.Message = p.Event.Message
	}
	// v1 callbacks carry the delivery id as "uuid".
	if ev.Header == nil && p.UUID != "" {
		ev.Header = &EventHeader{EventID: p.UUID}
	}
	return ev
}

func parsePayload(body []byte) (*payload, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return &payload{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedPayload)
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return &p, nil
}
