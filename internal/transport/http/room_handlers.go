package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tagrelay/internal/core"
)

// RoomHandlers exposes live room presence from the registry.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// RoomPresenceResponse reports how many sessions are connected to a room.
type RoomPresenceResponse struct {
	Room     string `json:"room"`
	Sessions int    `json:"sessions"`
}

// ListRooms lists rooms with at least one connected session.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	keys := h.registry.Rooms()

	response := make([]RoomPresenceResponse, 0, len(keys))
	for _, key := range keys {
		response = append(response, RoomPresenceResponse{
			Room:     key,
			Sessions: h.registry.Count(key),
		})
	}

	h.log.Debug().Int("room_count", len(response)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// RoomSessions reports the session count of one room. Unknown rooms report zero.
// GET /api/rooms/:room/sessions
func (h *RoomHandlers) RoomSessions(c *gin.Context) {
	room := c.Param("room")
	c.JSON(http.StatusOK, RoomPresenceResponse{
		Room:     room,
		Sessions: h.registry.Count(room),
	})
}
