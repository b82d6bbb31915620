package model

// EventType identifies a message pushed to connections
type EventType string

const (
	EventLobbyUpdate      EventType = "lobbyUpdate"
	EventRoomCreated      EventType = "roomCreated"
	EventRoomUpdate       EventType = "roomUpdate"
	EventGameStarted      EventType = "gameStarted"
	EventGameUpdate       EventType = "gameUpdate"
	EventGameOver         EventType = "gameOver"
	EventWordResult       EventType = "wordResult"
	EventPowerupUsed      EventType = "powerupUsed"
	EventPlayerEliminated EventType = "playerEliminated"
	EventNewRound         EventType = "newRound"
	EventDefinitionResult EventType = "definitionResult"
	EventError            EventType = "error"
)

// Event is the wire envelope for every server-to-client message
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// RoomCreatedPayload is sent to the creator only
type RoomCreatedPayload struct {
	RoomID RoomID `json:"roomId"`
	Room   *Room  `json:"room"`
}

// WordResultPayload is the private submit-word outcome
type WordResultPayload struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// PowerupUsedPayload announces a powerup activation to the whole room
type PowerupUsedPayload struct {
	PlayerID    PlayerID    `json:"playerId"`
	PlayerName  string      `json:"playerName"`
	PowerupType PowerupType `json:"powerupType"`
	TargetID    PlayerID    `json:"targetPlayerId,omitempty"`
	TargetName  string      `json:"targetName,omitempty"`
}

// PlayerEliminatedPayload announces a wordmaster round-end elimination
type PlayerEliminatedPayload struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

// NewRoundPayload announces the next wordmaster round
type NewRoundPayload struct {
	Round        int `json:"round"`
	Level        int `json:"level"`
	TimeForRound int `json:"timeForRound"`
}

// DefinitionResultPayload carries a resolved word definition to the room
type DefinitionResultPayload struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

// ErrorPayload is sent only to the connection whose intent failed
type ErrorPayload struct {
	Message string `json:"message"`
}
