package memory

import (
	"context"
	"sync"

	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms   map[model.RoomCode]*model.Room
	catalog []model.Character
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms: make(map[model.RoomCode]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

// SaveRoom stores a deep copy so later caller mutations can't leak into
// the stored state. The redis backend gets the same isolation from its
// marshal round-trip.
func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room.Clone()
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Storage) ListRoomCodes(ctx context.Context) ([]model.RoomCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]model.RoomCode, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Storage) RoomCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms), nil
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, characters []model.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = make([]model.Character, len(characters))
	copy(s.catalog, characters)
	return nil
}

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, model.ErrCatalogNotLoaded
	}
	result := make([]model.Character, len(s.catalog))
	copy(result, s.catalog)
	return result, nil
}
