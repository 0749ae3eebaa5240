package session

import (
	"sync"
	"time"

	"github.com/tobyv/guesswho/internal/dependencies/clock"
	"github.com/tobyv/guesswho/internal/model"
)

// Binding associates a transient connection with a durable player identity
// and the room that identity is playing in.
type Binding struct {
	PlayerID model.PlayerID
	RoomCode model.RoomCode
	BoundAt  time.Time
}

// Directory maps live connection ids to bindings. Entries are created on a
// successful create/join and removed on disconnect or leave; the Player
// inside the Room is deliberately untouched by removal, which is what makes
// reconnection with the same PlayerID seamless.
type Directory struct {
	clock clock.Clock

	mu       sync.RWMutex
	bindings map[model.ConnectionID]Binding
}

// NewDirectory creates an empty session directory
func NewDirectory(clock clock.Clock) *Directory {
	return &Directory{
		clock:    clock,
		bindings: make(map[model.ConnectionID]Binding),
	}
}

// Bind records that the connection now speaks for the given player in the
// given room, replacing any previous binding for that connection.
func (d *Directory) Bind(connID model.ConnectionID, playerID model.PlayerID, code model.RoomCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[connID] = Binding{
		PlayerID: playerID,
		RoomCode: code,
		BoundAt:  d.clock.Now(),
	}
}

// Resolve returns the binding for a connection, if any
func (d *Directory) Resolve(connID model.ConnectionID) (Binding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.bindings[connID]
	return b, ok
}

// Unbind removes the binding for a connection and returns it, if it existed
func (d *Directory) Unbind(connID model.ConnectionID) (Binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.bindings[connID]
	if ok {
		delete(d.bindings, connID)
	}
	return b, ok
}

// Len returns the number of bound connections
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.bindings)
}
