package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/quackextractor/wordrush/internal/dependencies/random"
	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/services/definition"
	"github.com/quackextractor/wordrush/internal/services/room"
	"github.com/quackextractor/wordrush/internal/services/words"
)

// Room codes avoid 0/O/1/I so they survive being read aloud or typed from
// a QR fallback
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

const maxCodeAttempts = 32

// Membership records which room a connection's player is in
type Membership struct {
	RoomID   model.RoomID
	PlayerID model.PlayerID
}

// Directory is the process-wide room registry. It creates and looks up room
// actors, maps connections to their membership, and feeds lobby watchers
// with listing updates. It implements room.Hooks so actors can report
// lifecycle changes back.
type Directory struct {
	engine      *room.Engine
	definitions *definition.Cache
	random      random.Random
	logger      *slog.Logger

	mu       sync.RWMutex
	actors   map[model.RoomID]*room.Actor
	listings map[model.RoomID]model.RoomListing
	members  map[string]Membership
	lobby    map[string]room.Subscriber
}

var _ room.Hooks = (*Directory)(nil)

// NewDirectory creates an empty directory
func NewDirectory(engine *room.Engine, definitions *definition.Cache, random random.Random, logger *slog.Logger) *Directory {
	return &Directory{
		engine:      engine,
		definitions: definitions,
		random:      random,
		logger:      logger.With(slog.String("component", "directory")),
		actors:      make(map[model.RoomID]*room.Actor),
		listings:    make(map[model.RoomID]model.RoomListing),
		members:     make(map[string]Membership),
		lobby:       make(map[string]room.Subscriber),
	}
}

// CreateRoom makes a room with a fresh code and joins the creator as host
func (d *Directory) CreateRoom(ctx context.Context, mode model.GameMode, p model.Player, connID string, sub room.Subscriber) (*model.Room, error) {
	actor, err := d.newActor(mode)
	if err != nil {
		return nil, err
	}

	snapshot, err := actor.Join(ctx, p, sub)
	if err != nil {
		// Cannot happen for a fresh room, but never leak an actor
		d.dropActor(actor.ID())
		actor.Stop()
		return nil, err
	}

	d.mu.Lock()
	d.members[connID] = Membership{RoomID: actor.ID(), PlayerID: p.ID}
	delete(d.lobby, connID)
	d.mu.Unlock()

	d.logger.Info("room created",
		slog.String("room_id", string(actor.ID())),
		slog.String("mode", string(mode)),
		slog.String("host", p.Name),
	)
	return snapshot, nil
}

// newActor reserves a unique room code and spawns the actor under it
func (d *Directory) newActor(mode model.GameMode) (*room.Actor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		id := model.RoomID(d.random.String(codeLength, codeAlphabet))
		if _, taken := d.actors[id]; taken {
			continue
		}
		actor := room.NewActor(model.NewRoom(id, mode), d.engine, d.definitions, d, d.logger)
		d.actors[id] = actor
		return actor, nil
	}
	return nil, fmt.Errorf("exhausted room code space after %d attempts", maxCodeAttempts)
}

// JoinRoom adds the player to an existing room and records the membership
func (d *Directory) JoinRoom(ctx context.Context, id model.RoomID, p model.Player, connID string, sub room.Subscriber) (*model.Room, error) {
	actor, ok := d.actor(id)
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	snapshot, err := actor.Join(ctx, p, sub)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.members[connID] = Membership{RoomID: id, PlayerID: p.ID}
	delete(d.lobby, connID)
	d.mu.Unlock()
	return snapshot, nil
}

// LeaveRoom removes the connection's player from their room, if any
func (d *Directory) LeaveRoom(ctx context.Context, connID string) (room.LeaveOutcome, error) {
	d.mu.Lock()
	m, ok := d.members[connID]
	delete(d.members, connID)
	d.mu.Unlock()
	if !ok {
		return room.LeaveOutcome{}, model.ErrNotInGame
	}

	actor, found := d.actor(m.RoomID)
	if !found {
		return room.LeaveOutcome{}, model.ErrRoomNotFound
	}
	return actor.Leave(ctx, m.PlayerID, connID)
}

// StartGame starts the game in the connection's room
func (d *Directory) StartGame(ctx context.Context, connID string) error {
	actor, m, err := d.memberActor(connID)
	if err != nil {
		return err
	}
	return actor.Start(ctx, m.PlayerID)
}

// SubmitWord routes a word submission to the connection's room
func (d *Directory) SubmitWord(ctx context.Context, connID, word string) (words.Verdict, error) {
	actor, m, err := d.memberActor(connID)
	if err != nil {
		return words.Verdict{}, err
	}
	return actor.SubmitWord(ctx, m.PlayerID, word)
}

// UsePowerup routes a powerup activation to the connection's room
func (d *Directory) UsePowerup(ctx context.Context, connID string, pt model.PowerupType, target model.PlayerID) error {
	actor, m, err := d.memberActor(connID)
	if err != nil {
		return err
	}
	return actor.UsePowerup(ctx, m.PlayerID, pt, target)
}

// FetchDefinition asks the connection's room for a word definition
func (d *Directory) FetchDefinition(ctx context.Context, connID, word string) error {
	actor, _, err := d.memberActor(connID)
	if err != nil {
		return err
	}
	return actor.FetchDefinition(ctx, word)
}

// Membership reports the room and player a connection is bound to
func (d *Directory) Membership(connID string) (Membership, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.members[connID]
	return m, ok
}

// RoomSnapshot returns a deep copy of a room's state
func (d *Directory) RoomSnapshot(ctx context.Context, id model.RoomID) (*model.Room, error) {
	actor, ok := d.actor(id)
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return actor.Snapshot(ctx)
}

// WatchLobby registers a connection for lobbyUpdate events and immediately
// sends the current listings
func (d *Directory) WatchLobby(connID string, sub room.Subscriber) {
	d.mu.Lock()
	d.lobby[connID] = sub
	d.mu.Unlock()

	sub.Send(model.Event{Type: model.EventLobbyUpdate, Payload: d.Listings()})
}

// Disconnect tears down everything tied to a connection. A player vanishing
// mid-game counts as leaving their room.
func (d *Directory) Disconnect(ctx context.Context, connID string) {
	d.mu.Lock()
	delete(d.lobby, connID)
	d.mu.Unlock()

	if _, err := d.LeaveRoom(ctx, connID); err != nil && err != model.ErrNotInGame {
		d.logger.Warn("disconnect cleanup failed",
			slog.String("conn_id", connID),
			slog.String("error", err.Error()),
		)
	}
}

// Listings returns the joinable rooms sorted by code
func (d *Directory) Listings() []model.RoomListing {
	d.mu.RLock()
	out := make([]model.RoomListing, 0, len(d.listings))
	for _, l := range d.listings {
		out = append(out, l)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RoomCount reports the number of live rooms
func (d *Directory) RoomCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.actors)
}

// Shutdown stops every room actor
func (d *Directory) Shutdown() {
	d.mu.Lock()
	actors := make([]*room.Actor, 0, len(d.actors))
	for _, a := range d.actors {
		actors = append(actors, a)
	}
	d.actors = make(map[model.RoomID]*room.Actor)
	d.listings = make(map[model.RoomID]model.RoomListing)
	d.mu.Unlock()

	for _, a := range actors {
		a.Stop()
	}
}

// ListingChanged implements room.Hooks
func (d *Directory) ListingChanged(listing model.RoomListing) {
	d.mu.Lock()
	d.listings[listing.ID] = listing
	d.mu.Unlock()
	d.broadcastLobby()
}

// ListingRemoved implements room.Hooks
func (d *Directory) ListingRemoved(id model.RoomID) {
	d.mu.Lock()
	delete(d.listings, id)
	d.mu.Unlock()
	d.broadcastLobby()
}

// RoomEmptied implements room.Hooks
func (d *Directory) RoomEmptied(id model.RoomID) {
	d.dropActor(id)
	d.logger.Info("room destroyed", slog.String("room_id", string(id)))
}

func (d *Directory) actor(id model.RoomID) (*room.Actor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	return a, ok
}

func (d *Directory) memberActor(connID string) (*room.Actor, Membership, error) {
	d.mu.RLock()
	m, ok := d.members[connID]
	a, found := d.actors[m.RoomID]
	d.mu.RUnlock()

	if !ok {
		return nil, Membership{}, model.ErrNotInGame
	}
	if !found {
		return nil, Membership{}, model.ErrRoomNotFound
	}
	return a, m, nil
}

func (d *Directory) dropActor(id model.RoomID) {
	d.mu.Lock()
	delete(d.actors, id)
	d.mu.Unlock()
}

func (d *Directory) broadcastLobby() {
	listings := d.Listings()

	d.mu.RLock()
	subs := make([]room.Subscriber, 0, len(d.lobby))
	for _, sub := range d.lobby {
		subs = append(subs, sub)
	}
	d.mu.RUnlock()

	for _, sub := range subs {
		sub.Send(model.Event{Type: model.EventLobbyUpdate, Payload: listings})
	}
}
