package model

import "time"

// RoomID is a short human-typeable code identifying an active room
type RoomID string

// GameMode selects the rule set a room plays under. Immutable after creation.
type GameMode string

const (
	ModeClassic    GameMode = "classic"    // sequential turns, lives-based elimination
	ModeWordmaster GameMode = "wordmaster" // simultaneous rounds, lowest scorer eliminated
)

// IsValidGameMode reports whether s names a known mode
func IsValidGameMode(s string) bool {
	return GameMode(s) == ModeClassic || GameMode(s) == ModeWordmaster
}

// RoomStatus is the room lifecycle state machine: waiting -> playing -> gameOver
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusGameOver RoomStatus = "gameOver"
)

// MaxPlayers is the room capacity
const MaxPlayers = 4

// ClassicTurnSeconds is the classic-mode per-turn time budget
const ClassicTurnSeconds = 15

// StartingLives is the classic-mode life count each player begins with
const StartingLives = 3

// Room holds one game session's mutable state. All access must go through the
// room's actor; nothing outside the actor goroutine may touch these fields.
type Room struct {
	ID     RoomID     `json:"id"`
	Mode   GameMode   `json:"mode"`
	Status RoomStatus `json:"status"`

	// Order is significant: it defines classic turn order
	Players []Player `json:"players"`

	// Classic only; always a valid index into Players while playing
	CurrentPlayerIndex int `json:"currentPlayerIndex"`

	Round int `json:"round"`
	Level int `json:"level"`

	// Room-level piece/timer (classic; wordmaster keeps these per player)
	WordPiece string `json:"wordPiece,omitempty"`
	TimeLeft  int    `json:"timeLeft"`

	UsedWords   map[string]struct{} `json:"-"`
	Definitions map[string]string   `json:"definitions"`

	// Wall-clock anchor for deadline computation; reset on every phase transition
	StartTime time.Time `json:"-"`
}

// NewRoom creates an empty waiting room
func NewRoom(id RoomID, mode GameMode) *Room {
	return &Room{
		ID:          id,
		Mode:        mode,
		Status:      StatusWaiting,
		Players:     []Player{},
		Level:       1,
		UsedWords:   make(map[string]struct{}),
		Definitions: make(map[string]string),
	}
}

// Host returns the current host, or nil if the room is empty
func (r *Room) Host() *Player {
	for i := range r.Players {
		if r.Players[i].IsHost {
			return &r.Players[i]
		}
	}
	return nil
}

// FindPlayer returns the player with the given ID and its index, or nil and -1
func (r *Room) FindPlayer(id PlayerID) (*Player, int) {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i], i
		}
	}
	return nil, -1
}

// WordmasterBudget returns the wordmaster per-round time budget in seconds
// for the given level: 30s at level 1, 5s less per level, floored at 10s.
func WordmasterBudget(level int) int {
	budget := 30 - (level-1)*5
	if budget < 10 {
		return 10
	}
	return budget
}

// LevelForRound derives the level from the round counter
func LevelForRound(round int) int {
	return round/3 + 1
}

// Listing returns the lobby view of the room
func (r *Room) Listing() RoomListing {
	hostName := "Unknown"
	if h := r.Host(); h != nil {
		hostName = h.Name
	}
	return RoomListing{
		ID:          r.ID,
		Mode:        r.Mode,
		PlayerCount: len(r.Players),
		HostName:    hostName,
	}
}

// RoomListing is the public lobby entry for a waiting room
type RoomListing struct {
	ID          RoomID   `json:"id"`
	Mode        GameMode `json:"mode"`
	PlayerCount int      `json:"playerCount"`
	HostName    string   `json:"hostName"`
}

// Snapshot returns a deep copy of the room safe to hand outside the actor
func (r *Room) Snapshot() *Room {
	cp := *r
	cp.Players = make([]Player, len(r.Players))
	copy(cp.Players, r.Players)
	for i := range cp.Players {
		powerups := make([]PowerupType, len(r.Players[i].Powerups))
		copy(powerups, r.Players[i].Powerups)
		cp.Players[i].Powerups = powerups
	}
	cp.UsedWords = make(map[string]struct{}, len(r.UsedWords))
	for w := range r.UsedWords {
		cp.UsedWords[w] = struct{}{}
	}
	cp.Definitions = make(map[string]string, len(r.Definitions))
	for w, d := range r.Definitions {
		cp.Definitions[w] = d
	}
	return &cp
}
