package core

import "sync"

// Room groups the sessions currently connected to the same room key.
// Every membership change and every dispatch happens under mu, so a
// broadcast sees one consistent member set.
type Room struct {
	Key      string
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewRoom constructs a room with no sessions.
func NewRoom(key string) *Room {
	return &Room{
		Key:      key,
		sessions: make(map[*Session]struct{}),
	}
}

// addSession inserts a session. Returns true if newly added.
func (r *Room) addSession(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// removeSession deletes a session and marks it closed. Returns true if removed.
func (r *Room) removeSession(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	s.closed = true
	return true
}

// broadcast sends an event to all sessions in the room and returns how many accepted it.
func (r *Room) broadcast(event *Event) int {
	delivered := 0
	for s := range r.sessions {
		if s.deliver(event) {
			delivered++
		}
	}
	return delivered
}

func (r *Room) snapshot() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// empty returns true if no sessions are in the room.
func (r *Room) empty() bool {
	return len(r.sessions) == 0
}
