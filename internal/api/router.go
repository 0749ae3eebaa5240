package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tobyv/guesswho/internal/api/handler"
	"github.com/tobyv/guesswho/internal/api/middleware"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	Gateway        *ws.Gateway
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	healthHandler := handler.NewHealthHandler(cfg.RoomController)
	roomHandler := handler.NewRoomHandler(cfg.RoomController)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Realtime gameplay surface
	r.HandleFunc("/ws", cfg.Gateway.HandleWS)

	// Read-only REST surface
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)

	r.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
