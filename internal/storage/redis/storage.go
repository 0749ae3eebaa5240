package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.Code), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomIndexKey(), string(room.Code))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(code))
	pipe.SRem(ctx, roomIndexKey(), string(code))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) ListRoomCodes(ctx context.Context) ([]model.RoomCode, error) {
	members, err := s.client.SMembers(ctx, roomIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	codes := make([]model.RoomCode, 0, len(members))
	for _, m := range members {
		code := model.RoomCode(m)
		// The index can outlive an expired room key; prune as we go
		exists, err := s.RoomExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			_ = s.client.SRem(ctx, roomIndexKey(), m).Err()
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Storage) RoomCount(ctx context.Context) (int, error) {
	codes, err := s.ListRoomCodes(ctx)
	if err != nil {
		return 0, err
	}
	return len(codes), nil
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, characters []model.Character) error {
	data, err := json.Marshal(characters)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogKey(), data, 0).Err()
}

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Character, error) {
	data, err := s.client.Get(ctx, catalogKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCatalogNotLoaded
		}
		return nil, err
	}

	var characters []model.Character
	if err := json.Unmarshal(data, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}
