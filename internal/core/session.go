package core

// Session is one live client connection bound to a single room for its lifetime.
type Session struct {
	ID     string
	Room   string
	Events chan *Event

	// closed is guarded by the lock of the room the session belongs to.
	closed bool
}

// NewSession constructs a session with a buffered event channel.
func NewSession(id, room string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 8
	}
	return &Session{
		ID:     id,
		Room:   room,
		Events: make(chan *Event, buffer),
	}
}

// deliver must be called with the session's room lock held.
func (s *Session) deliver(ev *Event) bool {
	if s.closed {
		return false
	}
	select {
	case s.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
