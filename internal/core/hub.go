package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub connects sessions to rooms and runs one pipeline per submitted message.
type Hub struct {
	registry *Registry
	pipeline *Pipeline
	log      *zerolog.Logger

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewHub creates a hub over an existing registry and pipeline.
func NewHub(registry *Registry, pipeline *Pipeline, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		pipeline: pipeline,
		log:      logger,
	}
}

// Registry exposes room membership for read-only callers.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect joins the session to the room it was opened for.
func (h *Hub) Connect(s *Session) {
	h.registry.Join(s)
	h.log.Info().Str("session_id", s.ID).Str("room", s.Room).Msg("session connected")
}

// Disconnect removes the session from its room.
func (h *Hub) Disconnect(s *Session) {
	if h.registry.Leave(s) {
		h.log.Info().Str("session_id", s.ID).Str("room", s.Room).Msg("session disconnected")
	}
}

// Submit starts a pipeline for the submission and returns immediately.
// The pipeline outlives the sender's connection. Returns false once the hub is draining.
func (h *Hub) Submit(s *Session, sub Submission) bool {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		h.log.Warn().Str("session_id", s.ID).Msg("submission refused, hub draining")
		return false
	}
	h.inflight.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.inflight.Done()
		h.pipeline.Process(context.Background(), s, sub)
	}()
	return true
}

// Run blocks until ctx is cancelled, then waits for in-flight pipelines to finish.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()

	h.log.Info().Msg("draining in-flight messages")
	h.inflight.Wait()
}
