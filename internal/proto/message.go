package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSendMessage = "sendMessage"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage = "receiveMessage"
)

// SendMessageData is a chat message submitted by the client.
type SendMessageData struct {
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	Sender    string   `json:"sender"`
	SenderID  int64    `json:"senderId"`
	ReplyToID *int64   `json:"replyToId,omitempty"`
	SentAt    string   `json:"sentAt"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is emitted to every session in the message's room.
type EventMessage struct {
	ID        int64    `json:"id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	Sender    string   `json:"sender"`
	SenderID  int64    `json:"senderId"`
	SentAt    string   `json:"sent_at"`
	ReplyToID *int64   `json:"replyToId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
