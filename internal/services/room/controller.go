package room

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tobyv/guesswho/internal/dependencies/clock"
	"github.com/tobyv/guesswho/internal/dependencies/random"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/services/catalog"
	"github.com/tobyv/guesswho/internal/storage"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config holds tunables for room behavior
type Config struct {
	// CharactersPerRoom is how many characters are dealt when a room fills
	CharactersPerRoom int
	// RoomTTL is how long a room may exist before the sweeper evicts it
	RoomTTL time.Duration
}

// DefaultConfig returns the default room configuration
func DefaultConfig() Config {
	return Config{
		CharactersPerRoom: 25,
		RoomTTL:           24 * time.Hour,
	}
}

// TurnHook is an extension point invoked whenever the turn changes hands,
// including the initial handover when a game starts. Nothing is wired to it
// by default; it exists so a turn deadline can be added without touching
// the state machine.
type TurnHook interface {
	TurnStarted(code model.RoomCode, player model.PlayerID, startedAt time.Time)
}

// Controller owns the room registry and all state transitions
type Controller struct {
	storage  storage.Storage
	catalog  *catalog.Service
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
	cfg      Config
	locks    *lockTable
	turnHook TurnHook
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	catalog *catalog.Service,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		catalog: catalog,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "room")),
		cfg:     cfg,
		locks:   newLockTable(),
	}
}

// SetTurnHook installs an optional turn handover observer
func (c *Controller) SetTurnHook(h TurnHook) {
	c.turnHook = h
}

// normalizeCode uppercases a room code; codes are case-insensitive on input
func normalizeCode(code model.RoomCode) model.RoomCode {
	return model.RoomCode(strings.ToUpper(string(code)))
}

// Create allocates a fresh room with the given player as its only member
func (c *Controller) Create(ctx context.Context, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error) {
	now := c.clock.Now()

	// Generate a unique room code. Collisions are rare in a 32^6 space
	// but the retry loop is mandatory, never assume the first draw is free.
	var code model.RoomCode
	for {
		code = model.RoomCode(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.RoomExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	room := &model.Room{
		Code:   code,
		Status: model.RoomStatusWaiting,
		Players: []model.Player{
			{
				ID:           playerID,
				ConnectionID: connID,
				Eliminated:   make(map[model.CharacterID]bool),
				JoinedAt:     now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
	)

	return room, nil
}

// Get retrieves a room by code
func (c *Controller) Get(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, normalizeCode(code))
}

// Join adds a player to a room, or rebinds the connection of a player who
// is already a member (reconnection). Joining is idempotent per identity;
// a second distinct identity fills the room and starts the picking phase.
func (c *Controller) Join(ctx context.Context, code model.RoomCode, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	// Known identity: reconnection, membership unchanged
	if p := room.GetPlayer(playerID); p != nil {
		p.ConnectionID = connID
		room.UpdatedAt = c.clock.Now()
		if err := c.storage.SaveRoom(ctx, room); err != nil {
			return nil, err
		}
		c.logger.Info("player reconnected",
			slog.String("code", string(code)),
			slog.String("player_id", string(playerID)),
		)
		return room, nil
	}

	if room.Full() {
		return nil, model.ErrRoomFull
	}

	now := c.clock.Now()
	room.Players = append(room.Players, model.Player{
		ID:           playerID,
		ConnectionID: connID,
		Eliminated:   make(map[model.CharacterID]bool),
		JoinedAt:     now,
	})

	// Second player arriving starts the picking phase: deal the board and
	// reset any per-player game state left over from a previous pairing.
	if room.Full() {
		characters, err := c.catalog.Draw(c.cfg.CharactersPerRoom)
		if err != nil {
			return nil, err
		}
		room.Characters = characters
		room.Status = model.RoomStatusPicking
		room.Turn = nil
		room.Winner = nil
		for i := range room.Players {
			room.Players[i].Choice = nil
			room.Players[i].Eliminated = make(map[model.CharacterID]bool)
			room.Players[i].Finalized = false
		}
	}

	room.UpdatedAt = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.String("status", string(room.Status)),
	)

	return room, nil
}

// Leave removes a player from a room. The last player leaving deletes the
// room; otherwise the room resets to waiting so a new pairing can form.
// Leaving mid-game deliberately forfeits the session for the remaining
// player rather than preserving game state for a future rejoin.
func (c *Controller) Leave(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (room *model.Room, deleted bool, err error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err = c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, false, err
	}

	if room.GetPlayer(playerID) == nil {
		return nil, false, model.ErrNotInRoom
	}

	for i := range room.Players {
		if room.Players[i].ID == playerID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		if err := c.storage.DeleteRoom(ctx, code); err != nil {
			return nil, false, err
		}
		c.locks.forget(code)
		c.logger.Info("room deleted",
			slog.String("code", string(code)),
			slog.String("player_id", string(playerID)),
		)
		return nil, true, nil
	}

	// Reset for a fresh pairing
	room.Status = model.RoomStatusWaiting
	room.Characters = nil
	room.Turn = nil
	room.Winner = nil
	for i := range room.Players {
		room.Players[i].Choice = nil
		room.Players[i].Eliminated = make(map[model.CharacterID]bool)
		room.Players[i].Finalized = false
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, false, err
	}

	c.logger.Info("player left",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
	)

	return room, false, nil
}

// Disconnect clears the player's connection reference if it still matches
// the given connection. Membership is untouched; the player may reconnect.
func (c *Controller) Disconnect(ctx context.Context, code model.RoomCode, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	p := room.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInRoom
	}

	// A reconnect may already have rebound the player to a newer
	// connection; only clear if we are still the current one.
	if p.ConnectionID != connID {
		return room, nil
	}

	p.ConnectionID = ""
	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player disconnected",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
	)

	return room, nil
}

// Pick records a player's secret character choice. When both players have
// picked, the game starts and the first turn is assigned uniformly.
func (c *Controller) Pick(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.Status != model.RoomStatusPicking {
		return nil, model.ErrWrongStatus
	}
	p := room.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInRoom
	}
	if !room.HasCharacter(characterID) {
		return nil, model.ErrUnknownCharacter
	}
	if p.Choice != nil {
		return nil, model.ErrAlreadyPicked
	}

	p.Choice = &characterID

	// Both picked: the game starts and a first turn is drawn uniformly
	bothPicked := true
	for i := range room.Players {
		if room.Players[i].Choice == nil {
			bothPicked = false
			break
		}
	}
	now := c.clock.Now()
	if bothPicked {
		room.Status = model.RoomStatusPlaying
		first := room.Players[c.random.Intn(len(room.Players))].ID
		room.Turn = &first
		c.notifyTurnStarted(code, first, now)
	}

	room.UpdatedAt = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("character picked",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.String("status", string(room.Status)),
	)

	return room, nil
}

// ToggleElimination flips a character in the acting player's own crossed-off
// set. Elimination is private bookkeeping, so it is not turn-gated.
func (c *Controller) ToggleElimination(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.Status != model.RoomStatusPlaying {
		return nil, model.ErrWrongStatus
	}
	p := room.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInRoom
	}
	if !room.HasCharacter(characterID) {
		return nil, model.ErrUnknownCharacter
	}

	if p.Eliminated[characterID] {
		delete(p.Eliminated, characterID)
	} else {
		p.Eliminated[characterID] = true
	}

	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// EndTurn passes the turn to the other player
func (c *Controller) EndTurn(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.Status != model.RoomStatusPlaying {
		return nil, model.ErrWrongStatus
	}
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrNotInRoom
	}
	if room.Turn == nil || *room.Turn != playerID {
		return nil, model.ErrNotYourTurn
	}

	opponent := room.Opponent(playerID)
	room.Turn = &opponent.ID
	now := c.clock.Now()
	room.UpdatedAt = now
	c.notifyTurnStarted(code, opponent.ID, now)

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("turn ended",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.String("next_turn", string(opponent.ID)),
	)

	return room, nil
}

// Guess commits the turn holder's one-shot guess at the opponent's secret.
// A correct guess wins; an incorrect guess loses. Either way the room is
// finished and exactly one winner is set.
func (c *Controller) Guess(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error) {
	code = normalizeCode(code)
	mu := c.locks.get(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.Status != model.RoomStatusPlaying {
		return nil, model.ErrWrongStatus
	}
	p := room.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInRoom
	}
	if !room.HasCharacter(characterID) {
		return nil, model.ErrUnknownCharacter
	}
	if room.Turn == nil || *room.Turn != playerID {
		return nil, model.ErrNotYourTurn
	}

	opponent := room.Opponent(playerID)
	winner := opponent.ID
	if opponent.Choice != nil && *opponent.Choice == characterID {
		winner = playerID
	}

	p.Finalized = true
	room.Winner = &winner
	room.Status = model.RoomStatusFinished
	room.Turn = nil
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("guess locked",
		slog.String("code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.String("character_id", string(characterID)),
		slog.String("winner", string(winner)),
	)

	return room, nil
}

// RoomCount returns the number of active rooms
func (c *Controller) RoomCount(ctx context.Context) (int, error) {
	return c.storage.RoomCount(ctx)
}

// Now exposes the controller's clock so callers can timestamp events
// consistently with room state
func (c *Controller) Now() time.Time {
	return c.clock.Now()
}

func (c *Controller) notifyTurnStarted(code model.RoomCode, player model.PlayerID, startedAt time.Time) {
	if c.turnHook != nil {
		c.turnHook.TurnStarted(code, player, startedAt)
	}
}

// ControllerInterface is the full intent surface, for dependency injection
type ControllerInterface interface {
	Create(ctx context.Context, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error)
	Get(ctx context.Context, code model.RoomCode) (*model.Room, error)
	Join(ctx context.Context, code model.RoomCode, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error)
	Leave(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, bool, error)
	Disconnect(ctx context.Context, code model.RoomCode, playerID model.PlayerID, connID model.ConnectionID) (*model.Room, error)
	Pick(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error)
	ToggleElimination(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error)
	EndTurn(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, error)
	Guess(ctx context.Context, code model.RoomCode, playerID model.PlayerID, characterID model.CharacterID) (*model.Room, error)
	RoomCount(ctx context.Context) (int, error)
}

var _ ControllerInterface = (*Controller)(nil)
