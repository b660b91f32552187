package core

import (
	"sort"
	"sync"
)

// Registry maps room keys to the sessions currently connected to them.
// Lock order is registry then room; dispatch takes only the room lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Join adds the session to its room. Returns false if it was already a member.
func (r *Registry) Join(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[s.Room]
	if !ok {
		room = NewRoom(s.Room)
		r.rooms[s.Room] = room
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.addSession(s)
}

// Leave removes the session from its room. Once Leave returns no dispatch
// targets the session. Returns false if it was not a member.
func (r *Registry) Leave(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[s.Room]
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	removed := room.removeSession(s)
	if room.empty() {
		delete(r.rooms, s.Room)
	}
	return removed
}

// MembersOf returns a snapshot of the sessions in a room.
func (r *Registry) MembersOf(key string) []*Session {
	room := r.room(key)
	if room == nil {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.snapshot()
}

// Count returns the number of sessions in a room.
func (r *Registry) Count(key string) int {
	room := r.room(key)
	if room == nil {
		return 0
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.sessions)
}

// Rooms lists the keys of rooms with at least one session, sorted.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.rooms))
	for key := range r.rooms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// broadcast delivers under the room lock so membership cannot change mid-dispatch.
func (r *Registry) broadcast(key string, ev *Event) int {
	room := r.room(key)
	if room == nil {
		return 0
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.broadcast(ev)
}

// send delivers to a single session if it is still registered.
func (r *Registry) send(s *Session, ev *Event) bool {
	room := r.room(s.Room)
	if room == nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if _, ok := room.sessions[s]; !ok {
		return false
	}
	return s.deliver(ev)
}

func (r *Registry) room(key string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[key]
}
