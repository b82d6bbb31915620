package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/services/definition"
	"github.com/quackextractor/wordrush/internal/services/words"
)

// TickInterval is the cadence of the room timer loop
const TickInterval = time.Second

const inboxSize = 64

// Subscriber receives room events. Send must never block; it reports false
// when the event was dropped so the actor can log it.
type Subscriber interface {
	ID() string
	Send(event model.Event) bool
}

// Hooks lets the owning directory react to lifecycle changes. Implementations
// must not call back into the actor while holding locks the actor's callers
// hold.
type Hooks interface {
	ListingChanged(listing model.RoomListing)
	ListingRemoved(id model.RoomID)
	RoomEmptied(id model.RoomID)
}

type task struct {
	fn   func()
	done chan struct{}
}

// Actor owns one room. All game state mutation and all broadcasting happen
// on its goroutine, so events fan out in exactly the order operations were
// applied and the engine never needs locks.
type Actor struct {
	id          model.RoomID
	engine      *Engine
	room        *model.Room
	definitions *definition.Cache
	hooks       Hooks
	logger      *slog.Logger

	inbox       chan task
	done        chan struct{}
	stopOnce    sync.Once
	subscribers map[string]Subscriber
}

// NewActor creates the actor and starts its goroutine
func NewActor(room *model.Room, engine *Engine, definitions *definition.Cache, hooks Hooks, logger *slog.Logger) *Actor {
	a := &Actor{
		id:          room.ID,
		engine:      engine,
		room:        room,
		definitions: definitions,
		hooks:       hooks,
		logger:      logger.With(slog.String("room_id", string(room.ID))),
		inbox:       make(chan task, inboxSize),
		done:        make(chan struct{}),
		subscribers: make(map[string]Subscriber),
	}
	go a.run()
	return a
}

// ID returns the room this actor owns
func (a *Actor) ID() model.RoomID {
	return a.id
}

func (a *Actor) run() {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case t := <-a.inbox:
			t.fn()
			close(t.done)
		case <-ticker.C:
			a.tick()
		case <-a.done:
			a.logger.Debug("room actor stopped")
			return
		}
	}
}

// Stop terminates the actor goroutine. Idempotent.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
}

// perform runs fn on the actor goroutine and waits for it to finish
func (a *Actor) perform(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case a.inbox <- t:
	case <-a.done:
		return model.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.done:
		return nil
	case <-a.done:
		// The task may still have run just before shutdown
		select {
		case <-t.done:
			return nil
		default:
			return model.ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tryPerform is perform without waiting for completion, for merge-backs from
// helper goroutines that must not block on a stopping actor
func (a *Actor) tryPerform(fn func()) {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case a.inbox <- t:
	case <-a.done:
	}
}

// Join adds the player and registers their event subscription, then
// broadcasts the new roster
func (a *Actor) Join(ctx context.Context, p model.Player, sub Subscriber) (*model.Room, error) {
	var (
		snapshot *model.Room
		joinErr  error
	)
	err := a.perform(ctx, func() {
		joinErr = a.engine.Join(a.room, p)
		if joinErr != nil {
			return
		}
		a.subscribers[sub.ID()] = sub
		snapshot = a.room.Snapshot()
		a.broadcast(model.Event{Type: model.EventRoomUpdate, Payload: snapshot})
		a.hooks.ListingChanged(a.room.Listing())
	})
	if err != nil {
		return nil, err
	}
	if joinErr != nil {
		return nil, joinErr
	}
	return snapshot, nil
}

// Leave removes the player and their subscription. The last player out
// shuts the actor down and has the directory drop the room.
func (a *Actor) Leave(ctx context.Context, id model.PlayerID, subID string) (LeaveOutcome, error) {
	var out LeaveOutcome
	err := a.perform(ctx, func() {
		delete(a.subscribers, subID)
		out = a.engine.Leave(a.room, id)
		if !out.Left {
			return
		}

		a.logger.Info("player left room", slog.String("player_id", string(id)))

		if out.RoomEmpty {
			a.hooks.ListingRemoved(a.id)
			a.hooks.RoomEmptied(a.id)
			a.Stop()
			return
		}

		snapshot := a.room.Snapshot()
		if out.GameOver {
			a.broadcast(model.Event{Type: model.EventGameOver, Payload: snapshot})
			return
		}
		a.broadcast(model.Event{Type: model.EventRoomUpdate, Payload: snapshot})
		if a.room.Status == model.StatusPlaying {
			a.broadcast(model.Event{Type: model.EventGameUpdate, Payload: snapshot})
		}
		if a.room.Status == model.StatusWaiting {
			a.hooks.ListingChanged(a.room.Listing())
		}
	})
	return out, err
}

// Start launches the game and pulls the room off the lobby listing
func (a *Actor) Start(ctx context.Context, caller model.PlayerID) error {
	var startErr error
	err := a.perform(ctx, func() {
		startErr = a.engine.Start(a.room, caller)
		if startErr != nil {
			return
		}
		a.hooks.ListingRemoved(a.id)
		a.broadcast(model.Event{Type: model.EventGameStarted, Payload: a.room.Snapshot()})
	})
	if err != nil {
		return err
	}
	return startErr
}

// SubmitWord judges the word. The verdict goes back to the caller for the
// private wordResult; accepted words broadcast the updated game state.
func (a *Actor) SubmitWord(ctx context.Context, id model.PlayerID, word string) (words.Verdict, error) {
	var (
		verdict   words.Verdict
		submitErr error
	)
	err := a.perform(ctx, func() {
		verdict, submitErr = a.engine.SubmitWord(a.room, id, word)
		if submitErr != nil || !verdict.OK() {
			return
		}
		a.broadcast(model.Event{Type: model.EventGameUpdate, Payload: a.room.Snapshot()})
	})
	if err != nil {
		return words.Verdict{}, err
	}
	return verdict, submitErr
}

// UsePowerup consumes and applies a powerup, announcing it to the room
func (a *Actor) UsePowerup(ctx context.Context, id model.PlayerID, pt model.PowerupType, target model.PlayerID) error {
	var useErr error
	err := a.perform(ctx, func() {
		var payload model.PowerupUsedPayload
		payload, useErr = a.engine.UsePowerup(a.room, id, pt, target)
		if useErr != nil {
			return
		}
		a.broadcast(model.Event{Type: model.EventPowerupUsed, Payload: payload})
		a.broadcast(model.Event{Type: model.EventGameUpdate, Payload: a.room.Snapshot()})
	})
	if err != nil {
		return err
	}
	return useErr
}

// FetchDefinition resolves a word definition for the room. Known words
// answer immediately; unknown ones are fetched off the actor goroutine and
// merged back when ready, so a slow upstream never stalls gameplay.
func (a *Actor) FetchDefinition(ctx context.Context, word string) error {
	normalized := words.Normalize(word)
	return a.perform(ctx, func() {
		if def, ok := a.room.Definitions[normalized]; ok {
			a.broadcast(model.Event{
				Type:    model.EventDefinitionResult,
				Payload: model.DefinitionResultPayload{Word: normalized, Definition: def},
			})
			return
		}
		go a.resolveDefinition(normalized)
	})
}

func (a *Actor) resolveDefinition(word string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	def := a.definitions.Get(ctx, word)
	a.tryPerform(func() {
		a.room.Definitions[word] = def
		a.broadcast(model.Event{
			Type:    model.EventDefinitionResult,
			Payload: model.DefinitionResultPayload{Word: word, Definition: def},
		})
	})
}

// Snapshot returns a deep copy of the current room state
func (a *Actor) Snapshot(ctx context.Context) (*model.Room, error) {
	var snapshot *model.Room
	err := a.perform(ctx, func() {
		snapshot = a.room.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (a *Actor) tick() {
	out := a.engine.Tick(a.room)
	if !out.Changed {
		return
	}

	for _, elim := range out.Eliminated {
		a.broadcast(model.Event{Type: model.EventPlayerEliminated, Payload: elim})
	}
	if out.NewRound != nil {
		a.broadcast(model.Event{Type: model.EventNewRound, Payload: out.NewRound})
	}

	snapshot := a.room.Snapshot()
	if out.GameOver {
		a.broadcast(model.Event{Type: model.EventGameOver, Payload: snapshot})
		if out.RoomEmpty {
			a.hooks.ListingRemoved(a.id)
			a.hooks.RoomEmptied(a.id)
			a.Stop()
		}
		return
	}
	a.broadcast(model.Event{Type: model.EventGameUpdate, Payload: snapshot})
}

func (a *Actor) broadcast(event model.Event) {
	for id, sub := range a.subscribers {
		if !sub.Send(event) {
			a.logger.Warn("dropped event for slow subscriber",
				slog.String("subscriber_id", id),
				slog.String("event_type", string(event.Type)),
			)
		}
	}
}
