package model

// CharacterID uniquely identifies a character in the catalog
type CharacterID string

// Character is the display metadata for one guessable character.
// The server never interprets Name or Image; they pass through to clients.
type Character struct {
	ID    CharacterID `json:"id"`
	Name  string      `json:"name"`
	Image string      `json:"image"`
}
