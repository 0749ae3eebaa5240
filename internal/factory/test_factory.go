package factory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tobyv/guesswho/internal/dependencies/mocks"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/storage/memory"
	"github.com/tobyv/guesswho/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, room.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// NewTestAppWithLogger is NewTestApp with a caller-supplied logger
func NewTestAppWithLogger(logger *slog.Logger) *TestApp {
	t := NewTestApp()
	t.App = newWithDependencies(t.Storage, t.MockClock, t.MockRandom, room.DefaultConfig(), logger)
	return t
}

// LoadTestCatalog loads a small deterministic catalog for testing
func (t *TestApp) LoadTestCatalog(size int) error {
	characters := make([]model.Character, size)
	for i := range characters {
		id := fmt.Sprintf("t%d", i+1)
		characters[i] = model.Character{
			ID:    model.CharacterID(id),
			Name:  fmt.Sprintf("Tester %d", i+1),
			Image: fmt.Sprintf("/characters/%s.png", id),
		}
	}
	return t.CatalogService.LoadCharacters(characters)
}
