package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/tobyv/guesswho/internal/dependencies/mocks"
	"github.com/tobyv/guesswho/internal/model"
	"github.com/tobyv/guesswho/internal/services/catalog"
	"github.com/tobyv/guesswho/internal/services/room"
	"github.com/tobyv/guesswho/internal/services/session"
	"github.com/tobyv/guesswho/internal/storage/memory"
	"github.com/tobyv/guesswho/internal/testutil"
)

// serverMessage is the decoded union of everything the gateway can push
type serverMessage struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId"`
	Success   bool          `json:"success"`
	Room      *RoomSnapshot `json:"room"`
	Error     *ErrorInfo    `json:"error"`
	Timestamp int64         `json:"timestamp"`
}

type GatewaySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	rooms    *room.Controller
	sessions *session.Directory
	hubs     *HubManager
	server   *httptest.Server
	conns    []*websocket.Conn
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	store := memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	catalogService := catalog.New(store, s.random)
	s.Require().NoError(catalogService.LoadCharacters([]model.Character{
		{ID: "c1", Name: "Alex"},
		{ID: "c2", Name: "Bella"},
		{ID: "c3", Name: "Carmen"},
		{ID: "c4", Name: "Diego"},
	}))

	cfg := room.Config{CharactersPerRoom: 4, RoomTTL: 24 * time.Hour}
	logger := testutil.NopLogger()
	s.rooms = room.NewController(store, catalogService, s.clock, s.random, cfg, logger)
	s.sessions = session.NewDirectory(s.clock)
	s.hubs = NewHubManager(logger)
	gateway := NewGateway(s.rooms, s.sessions, s.hubs, logger)

	s.server = httptest.NewServer(http.HandlerFunc(gateway.HandleWS))
	s.conns = nil
}

func (s *GatewaySuite) TearDownTest() {
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.server.Close()
}

func (s *GatewaySuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.conns = append(s.conns, conn)
	return conn
}

func (s *GatewaySuite) send(conn *websocket.Conn, msg map[string]string) {
	s.Require().NoError(conn.WriteJSON(msg))
}

func (s *GatewaySuite) read(conn *websocket.Conn) serverMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var msg serverMessage
	s.Require().NoError(conn.ReadJSON(&msg))
	return msg
}

// createRoom drives one connection through create-room and consumes both
// the ack and the initial broadcast
func (s *GatewaySuite) createRoom(conn *websocket.Conn, code, playerID string) {
	s.random.QueueString(code)
	s.send(conn, map[string]string{
		"type":      TypeCreateRoom,
		"requestId": "req-create",
		"playerId":  playerID,
	})

	ack := s.read(conn)
	s.Require().Equal(TypeAck, ack.Type)
	s.Require().True(ack.Success)
	s.Require().NotNil(ack.Room)
	s.Require().Equal(code, ack.Room.Code)

	update := s.read(conn)
	s.Require().Equal(TypeRoomUpdate, update.Type)
}

// joinRoom drives a connection through join-room and consumes the ack
func (s *GatewaySuite) joinRoom(conn *websocket.Conn, code, playerID string) {
	s.send(conn, map[string]string{
		"type":      TypeJoinRoom,
		"requestId": "req-join",
		"code":      code,
		"playerId":  playerID,
	})

	ack := s.read(conn)
	s.Require().Equal(TypeAck, ack.Type)
	s.Require().True(ack.Success)
}

func (s *GatewaySuite) TestCreateRoom() {
	conn := s.dial()
	s.random.QueueString("ABC234")

	s.send(conn, map[string]string{
		"type":      TypeCreateRoom,
		"requestId": "req-1",
		"playerId":  "p1",
	})

	ack := s.read(conn)
	s.Equal(TypeAck, ack.Type)
	s.Equal("req-1", ack.RequestID)
	s.True(ack.Success)
	s.Require().NotNil(ack.Room)
	s.Equal("ABC234", ack.Room.Code)
	s.Equal("waiting", ack.Room.Status)

	update := s.read(conn)
	s.Equal(TypeRoomUpdate, update.Type)
	s.Require().NotNil(update.Room)
	s.Equal("ABC234", update.Room.Code)
}

func (s *GatewaySuite) TestCreateRoomWithoutPlayerIDFails() {
	conn := s.dial()

	s.send(conn, map[string]string{
		"type":      TypeCreateRoom,
		"requestId": "req-1",
	})

	ack := s.read(conn)
	s.Equal(TypeAck, ack.Type)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeInvalidRequest, ack.Error.Code)
}

func (s *GatewaySuite) TestJoinBroadcastsToBothPlayers() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")

	s.joinRoom(conn2, "ABC234", "p2")

	// Both subscribers see the room move to picking with a dealt board
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		update := s.read(conn)
		s.Equal(TypeRoomUpdate, update.Type)
		s.Require().NotNil(update.Room)
		s.Equal("picking", update.Room.Status)
		s.Len(update.Room.Characters, 4)
		s.Len(update.Room.Players, 2)
	}
}

func (s *GatewaySuite) TestJoinUnknownRoomRejected() {
	conn := s.dial()

	s.send(conn, map[string]string{
		"type":      TypeJoinRoom,
		"requestId": "req-1",
		"code":      "NOPE22",
		"playerId":  "p1",
	})

	ack := s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeRoomNotFound, ack.Error.Code)
}

func (s *GatewaySuite) TestJoinFullRoomRejected() {
	conn1 := s.dial()
	conn2 := s.dial()
	conn3 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")

	s.send(conn3, map[string]string{
		"type":      TypeJoinRoom,
		"requestId": "req-1",
		"code":      "ABC234",
		"playerId":  "p3",
	})

	ack := s.read(conn3)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeRoomFull, ack.Error.Code)
}

func (s *GatewaySuite) TestGameplayIntentWithoutMembershipRejected() {
	conn := s.dial()

	s.send(conn, map[string]string{
		"type":        TypePickCharacter,
		"requestId":   "req-1",
		"characterId": "c1",
	})

	ack := s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeNotInRoom, ack.Error.Code)
}

func (s *GatewaySuite) TestFullGameOverWebsocket() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")
	s.read(conn1) // picking broadcast
	s.read(conn2)

	// p1 picks c1; no ack requested, both get the broadcast
	s.send(conn1, map[string]string{"type": TypePickCharacter, "characterId": "c1"})
	s.Equal("picking", s.read(conn1).Room.Status)
	s.Equal("picking", s.read(conn2).Room.Status)

	// p2 picks c2; game starts with p1's turn (mock draw returns 0)
	s.send(conn2, map[string]string{"type": TypePickCharacter, "characterId": "c2"})
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		update := s.read(conn)
		s.Equal("playing", update.Room.Status)
		s.Require().NotNil(update.Room.Turn)
		s.Equal("p1", *update.Room.Turn)
	}

	// p1 passes the turn
	s.send(conn1, map[string]string{"type": TypeValidateTurn})
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		update := s.read(conn)
		s.Require().NotNil(update.Room.Turn)
		s.Equal("p2", *update.Room.Turn)
	}

	// p2 guesses p1's secret correctly and wins
	s.send(conn2, map[string]string{"type": TypeLockGuess, "characterId": "c1"})
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		update := s.read(conn)
		s.Equal("finished", update.Room.Status)
		s.Require().NotNil(update.Room.Winner)
		s.Equal("p2", *update.Room.Winner)
		s.Nil(update.Room.Turn)
	}
}

func (s *GatewaySuite) TestGuessOutOfTurnRejected() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")
	s.read(conn1)
	s.read(conn2)

	s.send(conn1, map[string]string{"type": TypePickCharacter, "characterId": "c1"})
	s.read(conn1)
	s.read(conn2)
	s.send(conn2, map[string]string{"type": TypePickCharacter, "characterId": "c2"})
	s.read(conn1)
	s.read(conn2)

	// p2 does not hold the first turn
	s.send(conn2, map[string]string{"type": TypeLockGuess, "requestId": "req-1", "characterId": "c1"})

	ack := s.read(conn2)
	s.Equal(TypeAck, ack.Type)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeNotYourTurn, ack.Error.Code)
}

func (s *GatewaySuite) TestGetRoom() {
	conn := s.dial()
	s.createRoom(conn, "ABC234", "p1")

	probe := s.dial()
	s.send(probe, map[string]string{
		"type":      TypeGetRoom,
		"requestId": "req-1",
		"code":      "abc234", // codes are case-insensitive on input
	})

	ack := s.read(probe)
	s.True(ack.Success)
	s.Require().NotNil(ack.Room)
	s.Equal("ABC234", ack.Room.Code)
}

func (s *GatewaySuite) TestLeaveLastPlayerDeletesRoom() {
	conn := s.dial()
	s.createRoom(conn, "ABC234", "p1")

	s.send(conn, map[string]string{"type": TypeLeaveRoom, "requestId": "req-1"})

	ack := s.read(conn)
	s.True(ack.Success)
	s.Nil(ack.Room)

	_, err := s.rooms.Get(context.Background(), "ABC234")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Nil(s.hubs.GetHub("ABC234"))
	s.Equal(0, s.sessions.Len())
}

func (s *GatewaySuite) TestLeaveResetsRoomForRemainingPlayer() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")
	s.read(conn1)
	s.read(conn2)

	s.send(conn2, map[string]string{"type": TypeLeaveRoom, "requestId": "req-1"})
	ack := s.read(conn2)
	s.True(ack.Success)

	update := s.read(conn1)
	s.Equal(TypeRoomUpdate, update.Type)
	s.Equal("waiting", update.Room.Status)
	s.Len(update.Room.Players, 1)
	s.Empty(update.Room.Characters)
}

func (s *GatewaySuite) TestLeaveWithoutMembershipRejected() {
	conn := s.dial()

	s.send(conn, map[string]string{"type": TypeLeaveRoom, "requestId": "req-1"})

	ack := s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeNotInRoom, ack.Error.Code)
}

func (s *GatewaySuite) TestFailedLeaveKeepsConnectionState() {
	conn := s.dial()
	s.createRoom(conn, "ABC234", "p1")

	// The room is evicted out from under the connection
	s.clock.Advance(25 * time.Hour)
	evicted, err := s.rooms.Sweep(context.Background())
	s.Require().NoError(err)
	s.Require().Len(evicted, 1)

	s.send(conn, map[string]string{"type": TypeLeaveRoom, "requestId": "req-1"})

	ack := s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeRoomNotFound, ack.Error.Code)

	// A rejected leave tears nothing down: the binding and the hub
	// subscription look exactly as they did before the attempt
	s.Equal(1, s.sessions.Len())
	hub := s.hubs.GetHub("ABC234")
	s.Require().NotNil(hub)
	s.Equal(1, hub.ClientCount())

	s.send(conn, map[string]string{"type": TypePickCharacter, "requestId": "req-2", "characterId": "c1"})
	ack = s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeRoomNotFound, ack.Error.Code)
}

func (s *GatewaySuite) TestDisconnectAfterRoomEvicted() {
	conn := s.dial()
	s.createRoom(conn, "ABC234", "p1")

	// Eviction closes the hub while the connection is still subscribed
	s.hubs.RemoveHub("ABC234")
	s.Require().NoError(conn.Close())

	// Teardown must still complete; a closed hub can't be allowed to
	// block the read goroutine's unregister
	s.Eventually(func() bool {
		return s.sessions.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *GatewaySuite) TestDisconnectClearsSessionAndConnection() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")
	s.read(conn1)
	s.read(conn2)

	s.Require().NoError(conn2.Close())

	// Teardown is async; the surviving subscriber sees p2 go dark
	update := s.read(conn1)
	s.Equal(TypeRoomUpdate, update.Type)
	s.Len(update.Room.Players, 2)
	s.False(update.Room.Players[1].Connected)

	s.Eventually(func() bool {
		return s.sessions.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *GatewaySuite) TestReconnectAfterDisconnect() {
	conn1 := s.dial()
	conn2 := s.dial()
	s.createRoom(conn1, "ABC234", "p1")
	s.joinRoom(conn2, "ABC234", "p2")
	s.read(conn1)
	s.read(conn2)

	s.Require().NoError(conn2.Close())
	s.read(conn1) // disconnect broadcast

	// Same durable identity on a fresh connection resumes the same seat
	conn3 := s.dial()
	s.joinRoom(conn3, "ABC234", "p2")

	update := s.read(conn1)
	s.Len(update.Room.Players, 2)
	s.True(update.Room.Players[1].Connected)
	s.Equal("picking", update.Room.Status)
}

func (s *GatewaySuite) TestPingPong() {
	conn := s.dial()

	s.send(conn, map[string]string{"type": TypePing})

	pong := s.read(conn)
	s.Equal(TypePong, pong.Type)
	s.Equal(s.clock.Now().UnixMilli(), pong.Timestamp)
}

func (s *GatewaySuite) TestUnknownMessageTypeRejected() {
	conn := s.dial()

	s.send(conn, map[string]string{"type": "make-coffee", "requestId": "req-1"})

	ack := s.read(conn)
	s.False(ack.Success)
	s.Require().NotNil(ack.Error)
	s.Equal(ErrCodeInvalidRequest, ack.Error.Code)
}
