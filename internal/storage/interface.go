package storage

import (
	"context"

	"github.com/tobyv/guesswho/internal/model"
)

// Storage defines the interface for room and catalog persistence
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRoomCodes(ctx context.Context) ([]model.RoomCode, error)
	RoomCount(ctx context.Context) (int, error)

	// Catalog operations
	SaveCatalog(ctx context.Context, characters []model.Character) error
	GetCatalog(ctx context.Context) ([]model.Character, error)
}
