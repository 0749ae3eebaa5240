package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tobyv/guesswho/internal/services/room"
)

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// HealthHandler reports liveness and the active room count
type HealthHandler struct {
	rooms *room.Controller
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(rooms *room.Controller) *HealthHandler {
	return &HealthHandler{rooms: rooms}
}

// Get handles GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.rooms.RoomCount(r.Context())
	if err != nil {
		// Storage trouble means the service is not healthy
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Rooms: count})
}
