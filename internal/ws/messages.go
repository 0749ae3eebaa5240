package ws

// Intent types accepted from clients
const (
	TypeCreateRoom        = "create-room"
	TypeJoinRoom          = "join-room"
	TypeGetRoom           = "get-room"
	TypeLeaveRoom         = "leave-room"
	TypePickCharacter     = "pick-character"
	TypeToggleElimination = "toggle-elimination"
	TypeValidateTurn      = "validate-turn"
	TypeLockGuess         = "lock-guess"
	TypePing              = "ping"
)

// Message types pushed to clients
const (
	TypeAck        = "ack"
	TypeRoomUpdate = "room-update"
	TypePong       = "pong"
)

// ClientMessage is the envelope for every inbound intent
type ClientMessage struct {
	Type string `json:"type"`

	// RequestID, when set, asks for an ack even on fire-and-forget
	// intents. Create/join/get/leave are always acknowledged.
	RequestID string `json:"requestId,omitempty"`

	Code        string `json:"code,omitempty"`        // join-room / get-room
	PlayerID    string `json:"playerId,omitempty"`    // create-room / join-room
	RoomCode    string `json:"roomCode,omitempty"`    // gameplay intents
	CharacterID string `json:"characterId,omitempty"` // pick / toggle / guess
}

// ErrorInfo is a structured rejection attached to a failed ack
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AckMessage answers an acknowledged request, or rejects any intent that
// failed a guard. A rejection goes only to the originating connection.
type AckMessage struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId,omitempty"`
	Success   bool          `json:"success"`
	Room      *RoomSnapshot `json:"room,omitempty"`
	Error     *ErrorInfo    `json:"error,omitempty"`
}

// RoomUpdateMessage carries the full room snapshot to every subscriber
type RoomUpdateMessage struct {
	Type string       `json:"type"`
	Room RoomSnapshot `json:"room"`
}

// PongMessage answers a ping
type PongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}
