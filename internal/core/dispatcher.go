package core

import "github.com/rs/zerolog"

// Dispatcher fans events out to the sessions of a room.
type Dispatcher struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewDispatcher builds a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: logger}
}

// Broadcast delivers the event to every session in the room at the moment of
// the call. Sessions that are full or gone are skipped. Returns the number of
// sessions that accepted the event.
func (d *Dispatcher) Broadcast(room string, ev *Event) int {
	delivered := d.registry.broadcast(room, ev)
	d.log.Debug().
		Str("room", room).
		Int("delivered", delivered).
		Msg("broadcast dispatched")
	return delivered
}

// Notify delivers the event to one session only.
func (d *Dispatcher) Notify(s *Session, ev *Event) bool {
	ok := d.registry.send(s, ev)
	if !ok {
		d.log.Debug().Str("session_id", s.ID).Msg("notify skipped")
	}
	return ok
}
