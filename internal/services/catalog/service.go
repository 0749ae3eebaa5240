package catalog

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/tobyv/guesswho/internal/dependencies/random"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/storage"
)

// Service holds the full character catalog and deals random boards from it
type Service struct {
	storage storage.Storage
	random  random.Random

	mu         sync.RWMutex
	characters []model.Character
	loaded     bool
}

// New creates a new catalog Service
func New(storage storage.Storage, random random.Random) *Service {
	return &Service{
		storage: storage,
		random:  random,
	}
}

// LoadFromStorage loads the catalog previously saved to storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	characters, err := s.storage.GetCatalog(ctx)
	if err != nil {
		return err
	}
	return s.load(characters)
}

// LoadFromFile loads the catalog from a JSON file (an array of characters)
// and saves it to storage for future use
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var characters []model.Character
	if err := json.Unmarshal(data, &characters); err != nil {
		return err
	}

	if err := s.storage.SaveCatalog(ctx, characters); err != nil {
		return err
	}

	return s.load(characters)
}

// LoadDefault loads the embedded default catalog and saves it to storage
func (s *Service) LoadDefault(ctx context.Context) error {
	var characters []model.Character
	if err := json.Unmarshal(defaultCatalog, &characters); err != nil {
		return err
	}

	if err := s.storage.SaveCatalog(ctx, characters); err != nil {
		return err
	}

	return s.load(characters)
}

// LoadCharacters directly loads a slice of characters (useful for testing)
func (s *Service) LoadCharacters(characters []model.Character) error {
	return s.load(characters)
}

func (s *Service) load(characters []model.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters = make([]model.Character, len(characters))
	copy(s.characters, characters)
	s.loaded = true
	return nil
}

// IsLoaded returns whether the catalog has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Size returns the number of characters in the catalog
func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.characters)
}

// Draw returns n distinct characters drawn uniformly from the catalog.
// The result is a fresh slice; callers may retain it.
func (s *Service) Draw(n int) ([]model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, model.ErrCatalogNotLoaded
	}
	if n > len(s.characters) {
		return nil, model.ErrCatalogTooSmall
	}

	// Fisher-Yates over a copy; the first n entries are the deal
	shuffled := make([]model.Character, len(s.characters))
	copy(shuffled, s.characters)
	s.random.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n], nil
}
