package model

import "errors"

// Validation errors. These are recoverable, reported only to the originating
// connection, and never mutate room state.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyStarted   = errors.New("game already in progress")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotPlaying       = errors.New("game not in progress")
	ErrNotInGame        = errors.New("player not in game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyUsed      = errors.New("word already used")
	ErrNotOwned         = errors.New("powerup not available")
)
