package factory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/ws"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.LoadTestCatalog(30))
}

// Test: Complete game flow from room creation to a decided winner
func (s *IntegrationSuite) TestCompleteGameFlow() {
	rooms := s.app.RoomController

	// Step 1: p1 creates a room
	s.app.MockRandom.QueueString("ROOM22")
	created, err := rooms.Create(s.ctx, "p1", "conn-1")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ROOM22"), created.Code)
	s.Equal(model.RoomStatusWaiting, created.Status)

	// Step 2: p2 joins; the board is dealt and picking starts
	joined, err := rooms.Join(s.ctx, "ROOM22", "p2", "conn-2")
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPicking, joined.Status)
	s.Len(joined.Characters, 25)

	// Step 3: both pick secrets; p2 gets the first turn
	_, err = rooms.Pick(s.ctx, "ROOM22", "p1", joined.Characters[0].ID)
	s.Require().NoError(err)

	s.app.MockRandom.QueueIntn(1)
	playing, err := rooms.Pick(s.ctx, "ROOM22", "p2", joined.Characters[1].ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, playing.Status)
	s.Require().NotNil(playing.Turn)
	s.Equal(model.PlayerID("p2"), *playing.Turn)

	// Step 4: a few rounds of questions and crossings
	_, err = rooms.ToggleElimination(s.ctx, "ROOM22", "p2", joined.Characters[5].ID)
	s.Require().NoError(err)
	_, err = rooms.EndTurn(s.ctx, "ROOM22", "p2")
	s.Require().NoError(err)
	_, err = rooms.ToggleElimination(s.ctx, "ROOM22", "p1", joined.Characters[6].ID)
	s.Require().NoError(err)
	_, err = rooms.EndTurn(s.ctx, "ROOM22", "p1")
	s.Require().NoError(err)

	// Step 5: p2 locks a correct guess at p1's secret and wins
	finished, err := rooms.Guess(s.ctx, "ROOM22", "p2", joined.Characters[0].ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusFinished, finished.Status)
	s.Require().NotNil(finished.Winner)
	s.Equal(model.PlayerID("p2"), *finished.Winner)
	s.Nil(finished.Turn)

	// Step 6: the loser leaves, the room resets for a rematch pairing
	reset, deleted, err := rooms.Leave(s.ctx, "ROOM22", "p1")
	s.Require().NoError(err)
	s.False(deleted)
	s.Equal(model.RoomStatusWaiting, reset.Status)
	s.Nil(reset.Winner)

	// Step 7: the last player leaves and the room is gone
	_, deleted, err = rooms.Leave(s.ctx, "ROOM22", "p2")
	s.Require().NoError(err)
	s.True(deleted)

	count, err := rooms.RoomCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

// Test: a room returned by one intent can be snapshotted and marshaled
// while another connection's intents keep mutating the same room. The
// memory backend hands out clones, so the unlocked read never observes
// the concurrent write.
func (s *IntegrationSuite) TestSnapshotIsolatedFromConcurrentIntents() {
	rooms := s.app.RoomController

	s.app.MockRandom.QueueString("ROOM22")
	_, err := rooms.Create(s.ctx, "p1", "conn-1")
	s.Require().NoError(err)
	room, err := rooms.Join(s.ctx, "ROOM22", "p2", "conn-2")
	s.Require().NoError(err)
	_, err = rooms.Pick(s.ctx, "ROOM22", "p1", room.Characters[0].ID)
	s.Require().NoError(err)
	_, err = rooms.Pick(s.ctx, "ROOM22", "p2", room.Characters[1].ID)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for _, pid := range []model.PlayerID{"p1", "p2"} {
		wg.Add(1)
		go func(pid model.PlayerID) {
			defer wg.Done()
			for i := 2; i < 12; i++ {
				r, err := rooms.ToggleElimination(s.ctx, "ROOM22", pid, room.Characters[i].ID)
				if !s.NoError(err) {
					return
				}
				_, err = json.Marshal(ws.RoomUpdateMessage{Type: ws.TypeRoomUpdate, Room: ws.NewRoomSnapshot(r)})
				s.NoError(err)
			}
		}(pid)
	}
	wg.Wait()

	final, err := rooms.Get(s.ctx, "ROOM22")
	s.Require().NoError(err)
	s.Len(final.GetPlayer("p1").Eliminated, 10)
	s.Len(final.GetPlayer("p2").Eliminated, 10)
}

// Test: Reconnection keeps the seat through a dropped connection
func (s *IntegrationSuite) TestReconnectionFlow() {
	rooms := s.app.RoomController

	s.app.MockRandom.QueueString("ROOM22")
	_, err := rooms.Create(s.ctx, "p1", "conn-1")
	s.Require().NoError(err)
	room, err := rooms.Join(s.ctx, "ROOM22", "p2", "conn-2")
	s.Require().NoError(err)

	_, err = rooms.Pick(s.ctx, "ROOM22", "p1", room.Characters[0].ID)
	s.Require().NoError(err)
	playing, err := rooms.Pick(s.ctx, "ROOM22", "p2", room.Characters[1].ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, playing.Status)

	// p2's socket drops
	dropped, err := rooms.Disconnect(s.ctx, "ROOM22", "p2", "conn-2")
	s.Require().NoError(err)
	s.False(dropped.GetPlayer("p2").Connected())
	s.Equal(model.RoomStatusPlaying, dropped.Status)

	// p2 comes back on a new connection with the game intact
	rejoined, err := rooms.Join(s.ctx, "ROOM22", "p2", "conn-3")
	s.Require().NoError(err)
	s.True(rejoined.GetPlayer("p2").Connected())
	s.Equal(model.RoomStatusPlaying, rejoined.Status)
	s.NotNil(rejoined.GetPlayer("p2").Choice)
}

// Test: The sweeper and the session directory cooperate across services
func (s *IntegrationSuite) TestSweepExpiredRoom() {
	rooms := s.app.RoomController

	s.app.MockRandom.QueueString("ROOM22")
	_, err := rooms.Create(s.ctx, "p1", "conn-1")
	s.Require().NoError(err)
	s.app.SessionDirectory.Bind("conn-1", "p1", "ROOM22")

	s.app.MockClock.Advance(25 * time.Hour)

	evicted, err := rooms.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RoomCode{"ROOM22"}, evicted)

	_, err = rooms.Get(s.ctx, "ROOM22")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// The stale binding resolves to a dead room; the next intent through
	// the gateway surfaces room_not_found and the client rejoins fresh
	binding, ok := s.app.SessionDirectory.Resolve("conn-1")
	s.True(ok)
	s.Equal(model.RoomCode("ROOM22"), binding.RoomCode)
}

// Test: First-turn assignment exercises the real randomness dependency
func TestFirstTurnUsesUniformDraw(t *testing.T) {
	app := NewTestApp()
	ctx := context.Background()
	if err := app.LoadTestCatalog(30); err != nil {
		t.Fatal(err)
	}

	app.MockRandom.QueueString("ROOM22")
	if _, err := app.RoomController.Create(ctx, "p1", "conn-1"); err != nil {
		t.Fatal(err)
	}
	room, err := app.RoomController.Join(ctx, "ROOM22", "p2", "conn-2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.RoomController.Pick(ctx, "ROOM22", "p1", room.Characters[0].ID); err != nil {
		t.Fatal(err)
	}

	app.MockRandom.QueueIntn(1)
	playing, err := app.RoomController.Pick(ctx, "ROOM22", "p2", room.Characters[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if playing.Turn == nil || *playing.Turn != "p2" {
		t.Fatalf("expected first turn to follow the draw, got %v", playing.Turn)
	}
}
