package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tobyv/guesswho/internal/dependencies/mocks"
	"github.com/tobyv/guesswho/internal/dependencies/random"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.random)
	s.ctx = context.Background()
}

func (s *ServiceSuite) testCharacters() []model.Character {
	return []model.Character{
		{ID: "c1", Name: "Alex", Image: "/characters/c1.png"},
		{ID: "c2", Name: "Bella", Image: "/characters/c2.png"},
		{ID: "c3", Name: "Carmen", Image: "/characters/c3.png"},
		{ID: "c4", Name: "Diego", Image: "/characters/c4.png"},
	}
}

func (s *ServiceSuite) TestDrawBeforeLoadFails() {
	_, err := s.service.Draw(1)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *ServiceSuite) TestLoadCharacters() {
	s.Require().NoError(s.service.LoadCharacters(s.testCharacters()))

	s.True(s.service.IsLoaded())
	s.Equal(4, s.service.Size())
}

func (s *ServiceSuite) TestDrawReturnsDistinctCharacters() {
	s.Require().NoError(s.service.LoadCharacters(s.testCharacters()))

	drawn, err := s.service.Draw(3)
	s.Require().NoError(err)
	s.Len(drawn, 3)

	seen := make(map[model.CharacterID]bool)
	for _, c := range drawn {
		s.False(seen[c.ID])
		seen[c.ID] = true
	}
}

func (s *ServiceSuite) TestDrawFollowsShuffle() {
	s.Require().NoError(s.service.LoadCharacters(s.testCharacters()))

	// Reverse the deck; the deal is the shuffled prefix
	s.random.ShuffleFunc = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}

	drawn, err := s.service.Draw(2)
	s.Require().NoError(err)
	s.Equal(model.CharacterID("c4"), drawn[0].ID)
	s.Equal(model.CharacterID("c3"), drawn[1].ID)
}

func (s *ServiceSuite) TestDrawMoreThanCatalogFails() {
	s.Require().NoError(s.service.LoadCharacters(s.testCharacters()))

	_, err := s.service.Draw(5)
	s.ErrorIs(err, model.ErrCatalogTooSmall)
}

func (s *ServiceSuite) TestDrawDoesNotMutateCatalog() {
	s.Require().NoError(s.service.LoadCharacters(s.testCharacters()))

	s.random.ShuffleFunc = func(n int, swap func(i, j int)) {
		swap(0, n-1)
	}
	_, err := s.service.Draw(2)
	s.Require().NoError(err)

	drawnAgain, err := s.service.Draw(4)
	s.Require().NoError(err)
	s.Equal(model.CharacterID("c1"), drawnAgain[3].ID)
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := filepath.Join(s.T().TempDir(), "catalog.json")
	data := `[{"id":"x1","name":"Xena","image":"/characters/x1.png"}]`
	s.Require().NoError(os.WriteFile(path, []byte(data), 0644))

	s.Require().NoError(s.service.LoadFromFile(s.ctx, path))

	s.Equal(1, s.service.Size())

	// The file contents are persisted for other instances to load
	saved, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.CharacterID("x1"), saved[0].ID)
}

func (s *ServiceSuite) TestLoadFromMissingFileFails() {
	err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "nope.json"))
	s.Error(err)
	s.False(s.service.IsLoaded())
}

func (s *ServiceSuite) TestLoadFromStorage() {
	s.Require().NoError(s.storage.SaveCatalog(s.ctx, s.testCharacters()))

	other := New(s.storage, s.random)
	s.Require().NoError(other.LoadFromStorage(s.ctx))
	s.Equal(4, other.Size())
}

func (s *ServiceSuite) TestLoadFromEmptyStorageFails() {
	err := s.service.LoadFromStorage(s.ctx)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *ServiceSuite) TestLoadDefaultCatalog() {
	s.Require().NoError(s.service.LoadDefault(s.ctx))

	// The embedded set must cover a standard 25-character board
	s.GreaterOrEqual(s.service.Size(), 25)
}

func TestDefaultCatalogDrawsFullBoard(t *testing.T) {
	service := New(memory.New(), random.New())
	if err := service.LoadDefault(context.Background()); err != nil {
		t.Fatalf("loading default catalog: %v", err)
	}

	drawn, err := service.Draw(25)
	if err != nil {
		t.Fatalf("drawing board: %v", err)
	}
	if len(drawn) != 25 {
		t.Fatalf("expected 25 characters, got %d", len(drawn))
	}
}
