package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/services/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers enforce same-origin on the page that opens the
		// socket; the protocol itself carries no secrets beyond the
		// opaque player token the client generated.
		return true
	},
}

// Wire error codes for rejected intents
const (
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeRoomFull         = "room_full"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeWrongStatus      = "wrong_status"
	ErrCodeNotYourTurn      = "not_your_turn"
	ErrCodeUnknownCharacter = "unknown_character"
	ErrCodeAlreadyPicked    = "already_picked"
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeInternal         = "internal_error"
)

// Gateway wires inbound intents to the room controller and outbound
// snapshots to the per-room hubs. It is the only component that knows
// both the transport and the game.
type Gateway struct {
	rooms    *room.Controller
	sessions *session.Directory
	hubs     *HubManager
	logger   *slog.Logger
}

// NewGateway creates a new Gateway
func NewGateway(rooms *room.Controller, sessions *session.Directory, hubs *HubManager, logger *slog.Logger) *Gateway {
	return &Gateway{
		rooms:    rooms,
		sessions: sessions,
		hubs:     hubs,
		logger:   logger.With(slog.String("component", "gateway")),
	}
}

// HandleWS upgrades the request and serves the connection until it drops.
// Each connection gets a fresh transient id; no room membership is assumed
// until the client explicitly creates or joins.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	connID := model.ConnectionID(uuid.NewString())
	client := newClient(conn, connID, g.logger)

	g.logger.Info("client connected", slog.String("conn_id", string(connID)))

	go client.writePump()
	client.readPump(g)
}

// handleMessage dispatches one inbound intent
func (g *Gateway) handleMessage(c *Client, msg ClientMessage) {
	ctx := context.Background()

	switch msg.Type {
	case TypeCreateRoom:
		g.handleCreate(ctx, c, msg)
	case TypeJoinRoom:
		g.handleJoin(ctx, c, msg)
	case TypeGetRoom:
		g.handleGet(ctx, c, msg)
	case TypeLeaveRoom:
		g.handleLeave(ctx, c, msg)
	case TypePickCharacter:
		g.handleIntent(ctx, c, msg, g.rooms.Pick)
	case TypeToggleElimination:
		g.handleIntent(ctx, c, msg, g.rooms.ToggleElimination)
	case TypeValidateTurn:
		g.handleIntent(ctx, c, msg, func(ctx context.Context, code model.RoomCode, pid model.PlayerID, _ model.CharacterID) (*model.Room, error) {
			return g.rooms.EndTurn(ctx, code, pid)
		})
	case TypeLockGuess:
		g.handleIntent(ctx, c, msg, g.rooms.Guess)
	case TypePing:
		c.enqueue(PongMessage{Type: TypePong, Timestamp: g.rooms.Now().UnixMilli()})
	default:
		g.reject(c, msg, errors.New("unknown message type"))
	}
}

func (g *Gateway) handleCreate(ctx context.Context, c *Client, msg ClientMessage) {
	if msg.PlayerID == "" {
		g.reject(c, msg, errInvalidRequest)
		return
	}
	playerID := model.PlayerID(msg.PlayerID)

	r, err := g.rooms.Create(ctx, playerID, c.connID)
	if err != nil {
		g.reject(c, msg, err)
		return
	}

	g.subscribe(c, r.Code, playerID)
	g.ack(c, msg, r)
	g.BroadcastRoom(r)
}

func (g *Gateway) handleJoin(ctx context.Context, c *Client, msg ClientMessage) {
	code := msg.roomCode()
	if code == "" || msg.PlayerID == "" {
		g.reject(c, msg, errInvalidRequest)
		return
	}
	playerID := model.PlayerID(msg.PlayerID)

	r, err := g.rooms.Join(ctx, model.RoomCode(code), playerID, c.connID)
	if err != nil {
		g.reject(c, msg, err)
		return
	}

	g.subscribe(c, r.Code, playerID)
	g.ack(c, msg, r)
	g.BroadcastRoom(r)
}

func (g *Gateway) handleGet(ctx context.Context, c *Client, msg ClientMessage) {
	code := msg.roomCode()
	if code == "" {
		g.reject(c, msg, errInvalidRequest)
		return
	}

	r, err := g.rooms.Get(ctx, model.RoomCode(code))
	if err != nil {
		g.reject(c, msg, err)
		return
	}
	g.ack(c, msg, r)
}

func (g *Gateway) handleLeave(ctx context.Context, c *Client, msg ClientMessage) {
	binding, ok := g.sessions.Resolve(c.connID)
	if !ok {
		g.reject(c, msg, model.ErrNotInRoom)
		return
	}

	r, deleted, err := g.rooms.Leave(ctx, binding.RoomCode, binding.PlayerID)
	if err != nil {
		// The binding and subscription stay intact; a rejected leave must
		// leave the connection exactly as it was
		g.reject(c, msg, err)
		return
	}

	g.sessions.Unbind(c.connID)
	if hub := c.currentHub(); hub != nil {
		hub.Unregister(c)
		c.setHub(nil)
	}

	if deleted {
		g.hubs.RemoveHub(binding.RoomCode)
		g.ack(c, msg, nil)
		return
	}

	g.ack(c, msg, nil)
	g.BroadcastRoom(r)
}

// handleIntent runs a gameplay intent for the player bound to this
// connection. Results are observed via broadcast; an ack is sent only on
// rejection or when the client supplied a request id.
func (g *Gateway) handleIntent(
	ctx context.Context,
	c *Client,
	msg ClientMessage,
	fn func(context.Context, model.RoomCode, model.PlayerID, model.CharacterID) (*model.Room, error),
) {
	binding, ok := g.sessions.Resolve(c.connID)
	if !ok {
		g.reject(c, msg, model.ErrNotInRoom)
		return
	}

	r, err := fn(ctx, binding.RoomCode, binding.PlayerID, model.CharacterID(msg.CharacterID))
	if err != nil {
		g.reject(c, msg, err)
		return
	}

	if msg.RequestID != "" {
		g.ack(c, msg, r)
	}
	g.BroadcastRoom(r)
}

// handleDisconnect tears down the transport state for a dropped connection.
// The directory entry and hub subscription go eagerly; the Player stays in
// its Room so the same durable identity can reconnect and resume.
func (g *Gateway) handleDisconnect(c *Client) {
	if hub := c.currentHub(); hub != nil {
		hub.Unregister(c)
		c.setHub(nil)
	}

	binding, ok := g.sessions.Unbind(c.connID)
	if !ok {
		g.logger.Info("client disconnected", slog.String("conn_id", string(c.connID)))
		return
	}

	r, err := g.rooms.Disconnect(context.Background(), binding.RoomCode, binding.PlayerID, c.connID)
	if err != nil {
		if !errors.Is(err, model.ErrRoomNotFound) && !errors.Is(err, model.ErrNotInRoom) {
			g.logger.Error("disconnect cleanup failed",
				slog.String("conn_id", string(c.connID)),
				slog.String("error", err.Error()))
		}
		return
	}

	g.logger.Info("client disconnected",
		slog.String("conn_id", string(c.connID)),
		slog.String("room", string(binding.RoomCode)),
	)
	g.BroadcastRoom(r)
}

// subscribe binds the connection to a player/room and registers it with
// the room's hub
func (g *Gateway) subscribe(c *Client, code model.RoomCode, playerID model.PlayerID) {
	// A connection follows at most one room; drop any previous subscription
	if hub := c.currentHub(); hub != nil {
		hub.Unregister(c)
	}

	g.sessions.Bind(c.connID, playerID, code)
	hub := g.hubs.GetOrCreateHub(code)
	hub.Register(c)
	c.setHub(hub)
}

// BroadcastRoom pushes the full room snapshot to every subscriber of the
// room. Marshaling happens once per mutation, after the room lock has
// been released.
func (g *Gateway) BroadcastRoom(r *model.Room) {
	hub := g.hubs.GetHub(r.Code)
	if hub == nil {
		return
	}

	update := RoomUpdateMessage{Type: TypeRoomUpdate, Room: NewRoomSnapshot(r)}
	data, err := json.Marshal(update)
	if err != nil {
		g.logger.Error("failed to marshal room snapshot",
			slog.String("room", string(r.Code)),
			slog.String("error", err.Error()))
		return
	}
	hub.Broadcast(data)
}

func (g *Gateway) ack(c *Client, msg ClientMessage, r *model.Room) {
	ack := AckMessage{Type: TypeAck, RequestID: msg.RequestID, Success: true}
	if r != nil {
		snapshot := NewRoomSnapshot(r)
		ack.Room = &snapshot
	}
	c.enqueue(ack)
}

func (g *Gateway) reject(c *Client, msg ClientMessage, err error) {
	c.enqueue(AckMessage{
		Type:      TypeAck,
		RequestID: msg.RequestID,
		Success:   false,
		Error:     errorInfo(err),
	})
}

var errInvalidRequest = errors.New("missing required fields")

// errorInfo maps domain errors onto wire error codes
func errorInfo(err error) *ErrorInfo {
	code := ErrCodeInternal
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		code = ErrCodeRoomNotFound
	case errors.Is(err, model.ErrRoomFull):
		code = ErrCodeRoomFull
	case errors.Is(err, model.ErrNotInRoom):
		code = ErrCodeNotInRoom
	case errors.Is(err, model.ErrWrongStatus):
		code = ErrCodeWrongStatus
	case errors.Is(err, model.ErrNotYourTurn):
		code = ErrCodeNotYourTurn
	case errors.Is(err, model.ErrUnknownCharacter):
		code = ErrCodeUnknownCharacter
	case errors.Is(err, model.ErrAlreadyPicked):
		code = ErrCodeAlreadyPicked
	case errors.Is(err, errInvalidRequest), err.Error() == "unknown message type":
		code = ErrCodeInvalidRequest
	}
	return &ErrorInfo{Code: code, Message: err.Error()}
}

// roomCode returns the room code however the client sent it; join/get use
// "code" while gameplay intents use "roomCode"
func (m ClientMessage) roomCode() string {
	if m.Code != "" {
		return m.Code
	}
	return m.RoomCode
}
