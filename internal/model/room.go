package model

import "time"

// RoomCode is a human-typeable identifier for joining rooms.
// Always stored and compared in uppercase.
type RoomCode string

// PlayerID is the durable, client-generated identity of a player.
// It survives reconnects and is distinct from ConnectionID.
type PlayerID string

// ConnectionID identifies a single live transport connection.
// A new one is issued on every connect; it is never a player identity.
type ConnectionID string

// RoomStatus represents where a room is in its lifecycle
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // Fewer than two players
	RoomStatusPicking  RoomStatus = "picking"  // Both players choosing their secret character
	RoomStatusPlaying  RoomStatus = "playing"  // Turns in progress
	RoomStatusFinished RoomStatus = "finished" // A guess has been locked in
)

// MaxPlayers is the fixed room size; a third join is rejected.
const MaxPlayers = 2

// Player represents a participant in a room
type Player struct {
	ID PlayerID

	// ConnectionID is the player's current live connection, empty while
	// disconnected. Rebinding it is how reconnection works; the Player
	// itself stays in the room until an explicit leave.
	ConnectionID ConnectionID

	// Choice is the character this player picked as their own secret.
	// Nil until picked, immutable once set for the current game.
	Choice *CharacterID

	// Eliminated is this player's private crossed-off set. Only the
	// owning player may toggle entries; it never affects the opponent.
	Eliminated map[CharacterID]bool

	// Finalized is set when this player locks in a guess. The room's
	// Winner field decides the outcome; this records who ended it.
	Finalized bool

	JoinedAt time.Time
}

// Connected reports whether the player has a live connection
func (p *Player) Connected() bool {
	return p.ConnectionID != ""
}

// Room is a two-player game session
type Room struct {
	Code    RoomCode
	Status  RoomStatus
	Players []Player // join order; Players[0] is the creator

	// Characters is the fixed board dealt when the room fills.
	// Empty while waiting.
	Characters []Character

	Turn   *PlayerID // whose move it is; only meaningful while playing
	Winner *PlayerID // set exactly once by a guess

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the player with the given identity, or nil
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// Opponent returns the other player in the room, or nil if there isn't one
func (r *Room) Opponent(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID != id {
			return &r.Players[i]
		}
	}
	return nil
}

// HasCharacter reports whether the given character was dealt to this room
func (r *Room) HasCharacter(id CharacterID) bool {
	for i := range r.Characters {
		if r.Characters[i].ID == id {
			return true
		}
	}
	return false
}

// Full reports whether the room has reached its player limit
func (r *Room) Full() bool {
	return len(r.Players) >= MaxPlayers
}

// Clone returns a deep copy sharing no mutable state with the receiver.
// Storage backends hand out clones so snapshots can be read after the
// room's lock is released without racing the next mutation.
func (r *Room) Clone() *Room {
	out := *r
	out.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		if p.Choice != nil {
			choice := *p.Choice
			p.Choice = &choice
		}
		if p.Eliminated != nil {
			eliminated := make(map[CharacterID]bool, len(p.Eliminated))
			for id, crossed := range p.Eliminated {
				eliminated[id] = crossed
			}
			p.Eliminated = eliminated
		}
		out.Players[i] = p
	}
	if r.Characters != nil {
		out.Characters = make([]Character, len(r.Characters))
		copy(out.Characters, r.Characters)
	}
	if r.Turn != nil {
		turn := *r.Turn
		out.Turn = &turn
	}
	if r.Winner != nil {
		winner := *r.Winner
		out.Winner = &winner
	}
	return &out
}
