package ws

import (
	"sort"
	"time"

	"github.com/tobyv/guesswho/internal/model"
)

// PlayerSnapshot is the wire form of a player inside a room snapshot
type PlayerSnapshot struct {
	ID         string   `json:"id"`
	Connected  bool     `json:"connected"`
	Choice     *string  `json:"choice"`
	Eliminated []string `json:"eliminated"`
	Finalized  bool     `json:"finalized"`
}

// RoomSnapshot is the full serialized room state pushed to clients after
// every accepted mutation. Always the whole room, never a delta; payloads
// are small (two players, a few dozen characters) so simplicity wins.
type RoomSnapshot struct {
	Code       string            `json:"code"`
	Status     string            `json:"status"`
	Players    []PlayerSnapshot  `json:"players"`
	Characters []model.Character `json:"characters"`
	Turn       *string           `json:"turn"`
	Winner     *string           `json:"winner"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewRoomSnapshot converts a model.Room into its wire form
func NewRoomSnapshot(room *model.Room) RoomSnapshot {
	players := make([]PlayerSnapshot, len(room.Players))
	for i := range room.Players {
		players[i] = newPlayerSnapshot(&room.Players[i])
	}

	characters := room.Characters
	if characters == nil {
		characters = []model.Character{}
	}

	return RoomSnapshot{
		Code:       string(room.Code),
		Status:     string(room.Status),
		Players:    players,
		Characters: characters,
		Turn:       playerIDPtr(room.Turn),
		Winner:     playerIDPtr(room.Winner),
		CreatedAt:  room.CreatedAt,
	}
}

func newPlayerSnapshot(p *model.Player) PlayerSnapshot {
	eliminated := make([]string, 0, len(p.Eliminated))
	for id := range p.Eliminated {
		eliminated = append(eliminated, string(id))
	}
	sort.Strings(eliminated)

	var choice *string
	if p.Choice != nil {
		c := string(*p.Choice)
		choice = &c
	}

	return PlayerSnapshot{
		ID:         string(p.ID),
		Connected:  p.Connected(),
		Choice:     choice,
		Eliminated: eliminated,
		Finalized:  p.Finalized,
	}
}

func playerIDPtr(id *model.PlayerID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
