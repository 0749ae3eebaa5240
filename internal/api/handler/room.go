package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tobyv/guesswho/internal/api/apierr"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/ws"
)

// RoomHandler serves read-only room state over plain HTTP. Mutations go
// through the websocket gateway so every change is broadcast.
type RoomHandler struct {
	rooms *room.Controller
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms *room.Controller) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room code is required"))
		return
	}

	rm, err := h.rooms.Get(r.Context(), model.RoomCode(code))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ws.NewRoomSnapshot(rm))
}
