package core

import "time"

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventRoomMessage notifies sessions about a persisted chat message in their room.
	EventRoomMessage EventKind = iota
	// EventError tells a sender that its submission was not relayed.
	EventError
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message
	Error   *CoreError
}

// Message is the relayed view of a chat message. ID and SentAt come from the
// persisted row; the rest is passed through from the submission.
type Message struct {
	ID        int64
	Room      string
	Content   string
	Tags      []string
	Sender    string
	SenderID  int64
	ReplyToID *int64
	SentAt    time.Time
}

// Submission is a message as a client sent it, before validation.
type Submission struct {
	Content   string
	Tags      []string
	Sender    string
	SenderID  int64
	ReplyToID *int64
	SentAt    string
}
