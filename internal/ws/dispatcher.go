package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/session"
)

// opTimeout bounds how long one intent may wait on a room actor
const opTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP layer fronts this with its own CORS policy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Dispatcher upgrades websocket connections and routes client intents to
// the room directory
type Dispatcher struct {
	directory *session.Directory
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given directory
func NewDispatcher(directory *session.Directory, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		logger:    logger.With(slog.String("component", "ws")),
	}
}

// HandleConnection upgrades the request and runs the connection until it
// drops. New connections start out watching the lobby.
func (d *Dispatcher) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(uuid.NewString(), conn, d, d.logger)
	d.logger.Info("client connected", slog.String("conn_id", client.id))

	d.directory.WatchLobby(client.id, client)

	go client.writePump()
	go client.readPump()
}

func (d *Dispatcher) disconnected(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	d.directory.Disconnect(ctx, c.id)
	d.logger.Info("client disconnected", slog.String("conn_id", c.id))
}

func (d *Dispatcher) dispatch(c *Client, raw []byte) {
	var intent Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		c.Send(errorEvent("Malformed message"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch intent.Type {
	case IntentListRooms:
		d.directory.WatchLobby(c.id, c)
	case IntentCreateRoom:
		d.createRoom(ctx, c, intent)
	case IntentJoinRoom:
		d.joinRoom(ctx, c, intent)
	case IntentLeaveRoom:
		if _, err := d.directory.LeaveRoom(ctx, c.id); err != nil && !errors.Is(err, model.ErrNotInGame) {
			c.Send(errorEvent(errorMessage(err)))
		}
	case IntentStartGame:
		if err := d.directory.StartGame(ctx, c.id); err != nil {
			c.Send(errorEvent(errorMessage(err)))
		}
	case IntentSubmitWord:
		d.submitWord(ctx, c, intent)
	case IntentUsePowerup:
		d.usePowerup(ctx, c, intent)
	case IntentGetDefinition:
		if err := d.directory.FetchDefinition(ctx, c.id, intent.Word); err != nil {
			c.Send(errorEvent(errorMessage(err)))
		}
	default:
		c.Send(errorEvent("Unknown message type"))
	}
}

func (d *Dispatcher) createRoom(ctx context.Context, c *Client, intent Intent) {
	if !model.IsValidGameMode(intent.Mode) {
		c.Send(errorEvent("Unknown game mode"))
		return
	}
	if intent.PlayerName == "" {
		c.Send(errorEvent("Player name is required"))
		return
	}

	player := model.Player{
		ID:          model.PlayerID(c.id),
		Name:        intent.PlayerName,
		AvatarColor: intent.AvatarColor,
		AvatarData:  intent.AvatarData,
	}

	snapshot, err := d.directory.CreateRoom(ctx, model.GameMode(intent.Mode), player, c.id, c)
	if err != nil {
		c.Send(errorEvent(errorMessage(err)))
		return
	}

	c.Send(model.Event{
		Type:    model.EventRoomCreated,
		Payload: model.RoomCreatedPayload{RoomID: snapshot.ID, Room: snapshot},
	})
}

func (d *Dispatcher) joinRoom(ctx context.Context, c *Client, intent Intent) {
	if intent.PlayerName == "" {
		c.Send(errorEvent("Player name is required"))
		return
	}

	player := model.Player{
		ID:          model.PlayerID(c.id),
		Name:        intent.PlayerName,
		AvatarColor: intent.AvatarColor,
		AvatarData:  intent.AvatarData,
	}

	if _, err := d.directory.JoinRoom(ctx, model.RoomID(intent.RoomID), player, c.id, c); err != nil {
		c.Send(errorEvent(errorMessage(err)))
	}
}

func (d *Dispatcher) submitWord(ctx context.Context, c *Client, intent Intent) {
	verdict, err := d.directory.SubmitWord(ctx, c.id, intent.Word)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyUsed) {
			c.Send(model.Event{
				Type:    model.EventWordResult,
				Payload: model.WordResultPayload{Valid: false, Message: "Word already used!"},
			})
			return
		}
		c.Send(errorEvent(errorMessage(err)))
		return
	}

	message := verdict.Message
	if verdict.OK() {
		message = "Correct!"
	}
	c.Send(model.Event{
		Type:    model.EventWordResult,
		Payload: model.WordResultPayload{Valid: verdict.OK(), Message: message},
	})
}

func (d *Dispatcher) usePowerup(ctx context.Context, c *Client, intent Intent) {
	if !model.IsValidPowerupType(intent.PowerupType) {
		c.Send(errorEvent("Unknown powerup"))
		return
	}

	err := d.directory.UsePowerup(ctx, c.id,
		model.PowerupType(intent.PowerupType), model.PlayerID(intent.TargetPlayerID))
	if err != nil {
		c.Send(errorEvent(errorMessage(err)))
	}
}

func errorEvent(message string) model.Event {
	return model.Event{Type: model.EventError, Payload: model.ErrorPayload{Message: message}}
}

// errorMessage translates domain errors into client-facing text
func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, model.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, model.ErrAlreadyStarted):
		return "Game already started"
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return "Need at least 2 players to start"
	case errors.Is(err, model.ErrNotHost):
		return "Only the host can start the game"
	case errors.Is(err, model.ErrNotPlaying):
		return "Game is not in progress"
	case errors.Is(err, model.ErrNotInGame):
		return "You are not in a game"
	case errors.Is(err, model.ErrNotYourTurn):
		return "It's not your turn"
	case errors.Is(err, model.ErrNotOwned):
		return "You don't have that powerup"
	default:
		return "Something went wrong"
	}
}
