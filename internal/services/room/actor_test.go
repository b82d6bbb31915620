package room

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quackextractor/wordrush/internal/dependencies/mocks"
	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/services/definition"
	"github.com/quackextractor/wordrush/internal/services/words"
	"github.com/quackextractor/wordrush/internal/testutil"
)

type recordingSubscriber struct {
	id     string
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingSubscriber) ID() string {
	return r.id
}

func (r *recordingSubscriber) Send(event model.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return true
}

func (r *recordingSubscriber) snapshot() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// waitFor polls until an event of the given type arrives
func (r *recordingSubscriber) waitFor(t model.EventType, timeout time.Duration) (model.Event, bool) {
	return r.waitMatch(timeout, func(ev model.Event) bool {
		return ev.Type == t
	})
}

// waitMatch polls until an event satisfying match arrives
func (r *recordingSubscriber) waitMatch(timeout time.Duration, match func(model.Event) bool) (model.Event, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, ev := range r.snapshot() {
			if match(ev) {
				return ev, true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return model.Event{}, false
}

type recordingHooks struct {
	mu      sync.Mutex
	changed []model.RoomListing
	removed []model.RoomID
	emptied chan model.RoomID
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{emptied: make(chan model.RoomID, 1)}
}

func (h *recordingHooks) ListingChanged(listing model.RoomListing) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changed = append(h.changed, listing)
}

func (h *recordingHooks) ListingRemoved(id model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, id)
}

func (h *recordingHooks) RoomEmptied(id model.RoomID) {
	h.emptied <- id
}

func (h *recordingHooks) removedIDs() []model.RoomID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.RoomID, len(h.removed))
	copy(out, h.removed)
	return out
}

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	results map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, word string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if def, ok := f.results[word]; ok {
		return def, nil
	}
	return definition.Unavailable, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type ActorTestSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	fetcher *stubFetcher
	hooks   *recordingHooks
	actor   *Actor
}

func TestActorTestSuite(t *testing.T) {
	suite.Run(t, new(ActorTestSuite))
}

func (s *ActorTestSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.fetcher = &stubFetcher{results: map[string]string{"banter": "teasing talk"}}
	s.hooks = newRecordingHooks()

	judge := words.NewJudge()
	judge.SetDictionary([]string{"band", "banter", "plan", "planet", "many", "mango"})

	rnd := mocks.NewMockRandom()
	engine := NewEngine(words.NewSource(rnd), judge, s.clock, rnd, testutil.NopLogger())
	cache := definition.NewCache(s.fetcher, 10, time.Minute, testutil.NopLogger())

	s.actor = NewActor(model.NewRoom("TESTRM", model.ModeClassic), engine, cache, s.hooks, testutil.NopLogger())
}

func (s *ActorTestSuite) TearDownTest() {
	s.actor.Stop()
}

func (s *ActorTestSuite) join(name string) *recordingSubscriber {
	sub := &recordingSubscriber{id: "conn-" + name}
	_, err := s.actor.Join(context.Background(), model.Player{ID: model.PlayerID(name), Name: name}, sub)
	s.Require().NoError(err)
	return sub
}

func (s *ActorTestSuite) TestJoinBroadcastsRoomUpdate() {
	sub1 := s.join("p1")
	s.join("p2")

	events := sub1.snapshot()
	s.Require().Len(events, 2)
	s.Equal(model.EventRoomUpdate, events[0].Type)
	s.Equal(model.EventRoomUpdate, events[1].Type)

	room := events[1].Payload.(*model.Room)
	s.Len(room.Players, 2)
}

func (s *ActorTestSuite) TestConcurrentJoinsRespectCapacity() {
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("p%d", i)
			sub := &recordingSubscriber{id: "conn-" + name}
			_, errs[i] = s.actor.Join(context.Background(), model.Player{ID: model.PlayerID(name), Name: name}, sub)
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
		} else {
			s.ErrorIs(err, model.ErrRoomFull)
		}
	}
	s.Equal(model.MaxPlayers, joined)

	snapshot, err := s.actor.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Len(snapshot.Players, model.MaxPlayers)
	s.True(snapshot.Players[0].IsHost)
}

func (s *ActorTestSuite) TestStartBroadcastsAndDelists() {
	sub := s.join("p1")
	s.join("p2")

	s.Require().NoError(s.actor.Start(context.Background(), "p1"))

	ev, ok := sub.waitFor(model.EventGameStarted, time.Second)
	s.Require().True(ok)
	room := ev.Payload.(*model.Room)
	s.Equal(model.StatusPlaying, room.Status)
	s.Equal([]model.RoomID{"TESTRM"}, s.hooks.removedIDs())
}

func (s *ActorTestSuite) TestSubmitWordBroadcastsGameUpdate() {
	sub := s.join("p1")
	s.join("p2")
	s.Require().NoError(s.actor.Start(context.Background(), "p1"))

	verdict, err := s.actor.SubmitWord(context.Background(), "p1", "banter")
	s.Require().NoError(err)
	s.True(verdict.OK())

	// Periodic ticks also broadcast gameUpdate, so match on the score
	_, ok := sub.waitMatch(time.Second, func(ev model.Event) bool {
		room, isRoom := ev.Payload.(*model.Room)
		return ev.Type == model.EventGameUpdate && isRoom && room.Players[0].Score == 6
	})
	s.True(ok)
}

func (s *ActorTestSuite) TestRejectedWordDoesNotBroadcast() {
	sub := s.join("p1")
	s.join("p2")
	s.Require().NoError(s.actor.Start(context.Background(), "p1"))

	verdict, err := s.actor.SubmitWord(context.Background(), "p1", "zzz")
	s.Require().NoError(err)
	s.False(verdict.OK())

	// Only the timer may broadcast now; nothing should carry a score
	_, ok := sub.waitMatch(100*time.Millisecond, func(ev model.Event) bool {
		room, isRoom := ev.Payload.(*model.Room)
		return isRoom && room.Players[0].Score > 0
	})
	s.False(ok)
}

func (s *ActorTestSuite) TestLastLeaveEmptiesRoomAndStops() {
	s.join("p1")

	out, err := s.actor.Leave(context.Background(), "p1", "conn-p1")
	s.Require().NoError(err)
	s.True(out.RoomEmpty)

	select {
	case id := <-s.hooks.emptied:
		s.Equal(model.RoomID("TESTRM"), id)
	case <-time.After(time.Second):
		s.Fail("hooks never saw the room empty")
	}

	_, err = s.actor.Snapshot(context.Background())
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ActorTestSuite) TestTickerTimesOutTurn() {
	sub := s.join("p1")
	s.join("p2")
	s.Require().NoError(s.actor.Start(context.Background(), "p1"))

	s.clock.Advance(15 * time.Second)

	ev, ok := sub.waitMatch(3*time.Second, func(ev model.Event) bool {
		room, isRoom := ev.Payload.(*model.Room)
		return ev.Type == model.EventGameUpdate && isRoom && room.Players[0].Lives == 2
	})
	s.Require().True(ok)
	room := ev.Payload.(*model.Room)
	s.Equal(1, room.CurrentPlayerIndex)
}

func (s *ActorTestSuite) TestFetchDefinitionMergesBack() {
	sub := s.join("p1")

	s.Require().NoError(s.actor.FetchDefinition(context.Background(), "Banter"))

	ev, ok := sub.waitFor(model.EventDefinitionResult, time.Second)
	s.Require().True(ok)
	payload := ev.Payload.(model.DefinitionResultPayload)
	s.Equal("banter", payload.Word)
	s.Equal("teasing talk", payload.Definition)

	// Second ask answers from room state without another upstream call
	s.Require().NoError(s.actor.FetchDefinition(context.Background(), "banter"))
	s.Equal(1, s.fetcher.callCount())
}
