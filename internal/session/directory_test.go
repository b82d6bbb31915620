package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quackextractor/wordrush/internal/dependencies/mocks"
	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/services/definition"
	"github.com/quackextractor/wordrush/internal/services/room"
	"github.com/quackextractor/wordrush/internal/services/words"
	"github.com/quackextractor/wordrush/internal/testutil"
)

type fakeSubscriber struct {
	id     string
	mu     sync.Mutex
	events []model.Event
}

func (f *fakeSubscriber) ID() string {
	return f.id
}

func (f *fakeSubscriber) Send(event model.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return true
}

func (f *fakeSubscriber) lastOfType(t model.EventType) (model.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Type == t {
			return f.events[i], true
		}
	}
	return model.Event{}, false
}

type staticFetcher struct{}

func (staticFetcher) Fetch(ctx context.Context, word string) (string, error) {
	return definition.Unavailable, nil
}

type DirectoryTestSuite struct {
	suite.Suite
	random    *mocks.MockRandom
	directory *Directory
}

func TestDirectoryTestSuite(t *testing.T) {
	suite.Run(t, new(DirectoryTestSuite))
}

func (s *DirectoryTestSuite) SetupTest() {
	s.random = mocks.NewMockRandom()

	judge := words.NewJudge()
	judge.SetDictionary([]string{"band", "banter", "plan", "planet"})

	clk := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	engine := room.NewEngine(words.NewSource(s.random), judge, clk, s.random, testutil.NopLogger())
	cache := definition.NewCache(staticFetcher{}, 10, time.Minute, testutil.NopLogger())

	s.directory = NewDirectory(engine, cache, s.random, testutil.NopLogger())
}

func (s *DirectoryTestSuite) TearDownTest() {
	s.directory.Shutdown()
}

func (s *DirectoryTestSuite) create(code, conn, player string) *fakeSubscriber {
	s.random.QueueString(code)
	sub := &fakeSubscriber{id: conn}
	_, err := s.directory.CreateRoom(context.Background(), model.ModeClassic,
		model.Player{ID: model.PlayerID(player), Name: player}, conn, sub)
	s.Require().NoError(err)
	return sub
}

func (s *DirectoryTestSuite) TestCreateRoomBindsCreator() {
	s.create("ABC234", "conn-1", "alice")

	m, ok := s.directory.Membership("conn-1")
	s.Require().True(ok)
	s.Equal(model.RoomID("ABC234"), m.RoomID)
	s.Equal(model.PlayerID("alice"), m.PlayerID)

	listings := s.directory.Listings()
	s.Require().Len(listings, 1)
	s.Equal(model.RoomID("ABC234"), listings[0].ID)
	s.Equal("alice", listings[0].HostName)
	s.Equal(1, listings[0].PlayerCount)
}

func (s *DirectoryTestSuite) TestCreateRoomRetriesTakenCode() {
	s.create("ABC234", "conn-1", "alice")

	// Same code drawn again, then a fresh one
	s.random.QueueString("ABC234", "XYZ789")
	sub := &fakeSubscriber{id: "conn-2"}
	snapshot, err := s.directory.CreateRoom(context.Background(), model.ModeClassic,
		model.Player{ID: "bob", Name: "bob"}, "conn-2", sub)
	s.Require().NoError(err)
	s.Equal(model.RoomID("XYZ789"), snapshot.ID)
	s.Equal(2, s.directory.RoomCount())
}

func (s *DirectoryTestSuite) TestJoinUnknownRoom() {
	sub := &fakeSubscriber{id: "conn-1"}
	_, err := s.directory.JoinRoom(context.Background(), "NOSUCH",
		model.Player{ID: "bob", Name: "bob"}, "conn-1", sub)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *DirectoryTestSuite) TestJoinRecordsMembership() {
	s.create("ABC234", "conn-1", "alice")

	sub := &fakeSubscriber{id: "conn-2"}
	snapshot, err := s.directory.JoinRoom(context.Background(), "ABC234",
		model.Player{ID: "bob", Name: "bob"}, "conn-2", sub)
	s.Require().NoError(err)
	s.Len(snapshot.Players, 2)

	m, ok := s.directory.Membership("conn-2")
	s.Require().True(ok)
	s.Equal(model.RoomID("ABC234"), m.RoomID)
}

func (s *DirectoryTestSuite) TestLobbyWatcherFollowsRoomLifecycle() {
	watcher := &fakeSubscriber{id: "watcher"}
	s.directory.WatchLobby("watcher", watcher)

	ev, ok := watcher.lastOfType(model.EventLobbyUpdate)
	s.Require().True(ok)
	s.Empty(ev.Payload.([]model.RoomListing))

	s.create("ABC234", "conn-1", "alice")
	ev, _ = watcher.lastOfType(model.EventLobbyUpdate)
	s.Len(ev.Payload.([]model.RoomListing), 1)

	sub := &fakeSubscriber{id: "conn-2"}
	_, err := s.directory.JoinRoom(context.Background(), "ABC234",
		model.Player{ID: "bob", Name: "bob"}, "conn-2", sub)
	s.Require().NoError(err)

	// Starting pulls the room off the lobby
	s.Require().NoError(s.directory.StartGame(context.Background(), "conn-1"))
	ev, _ = watcher.lastOfType(model.EventLobbyUpdate)
	s.Empty(ev.Payload.([]model.RoomListing))
}

func (s *DirectoryTestSuite) TestLastLeaveDestroysRoom() {
	s.create("ABC234", "conn-1", "alice")

	out, err := s.directory.LeaveRoom(context.Background(), "conn-1")
	s.Require().NoError(err)
	s.True(out.RoomEmpty)
	s.Equal(0, s.directory.RoomCount())
	s.Empty(s.directory.Listings())

	_, ok := s.directory.Membership("conn-1")
	s.False(ok)
}

func (s *DirectoryTestSuite) TestDisconnectCleansUp() {
	s.create("ABC234", "conn-1", "alice")

	s.directory.Disconnect(context.Background(), "conn-1")
	s.Equal(0, s.directory.RoomCount())
	_, ok := s.directory.Membership("conn-1")
	s.False(ok)
}

func (s *DirectoryTestSuite) TestSubmitWithoutMembership() {
	_, err := s.directory.SubmitWord(context.Background(), "conn-1", "band")
	s.ErrorIs(err, model.ErrNotInGame)
}

func (s *DirectoryTestSuite) TestStartRoutesToRoom() {
	s.create("ABC234", "conn-1", "alice")
	sub := &fakeSubscriber{id: "conn-2"}
	_, err := s.directory.JoinRoom(context.Background(), "ABC234",
		model.Player{ID: "bob", Name: "bob"}, "conn-2", sub)
	s.Require().NoError(err)

	s.ErrorIs(s.directory.StartGame(context.Background(), "conn-2"), model.ErrNotHost)
	s.Require().NoError(s.directory.StartGame(context.Background(), "conn-1"))

	verdict, err := s.directory.SubmitWord(context.Background(), "conn-1", "banter")
	s.Require().NoError(err)
	s.True(verdict.OK())
}

func (s *DirectoryTestSuite) TestShutdownDropsEverything() {
	s.create("ABC234", "conn-1", "alice")
	s.directory.Shutdown()

	s.Equal(0, s.directory.RoomCount())
	sub := &fakeSubscriber{id: "conn-2"}
	_, err := s.directory.JoinRoom(context.Background(), "ABC234",
		model.Player{ID: "bob", Name: "bob"}, "conn-2", sub)
	s.ErrorIs(err, model.ErrRoomNotFound)
}
