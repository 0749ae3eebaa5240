package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotInRoom    = errors.New("player is not in room")

	// Intent guard errors
	ErrWrongStatus      = errors.New("room is not in the right state for this action")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrUnknownCharacter = errors.New("character is not on this room's board")
	ErrAlreadyPicked    = errors.New("player has already picked a character")

	// Catalog errors
	ErrCatalogNotLoaded = errors.New("character catalog not loaded")
	ErrCatalogTooSmall  = errors.New("character catalog is smaller than the requested deal")
)
