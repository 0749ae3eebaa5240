package redis

import (
	"fmt"

	"github.com/tobyv/guesswho/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "guesswho"

// roomKey returns the Redis key for a Room
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomIndexKey returns the Redis key for the SET of all room codes
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// catalogKey returns the Redis key for the character catalog
func catalogKey() string {
	return fmt.Sprintf("%s:catalog", keyPrefix)
}
