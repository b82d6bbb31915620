package model

// PlayerID uniquely identifies a player within the system.
// It is connection-scoped: a player's ID is the ID of the
// connection that joined the room.
type PlayerID string

// PowerupType is the closed set of one-shot powerup effects
type PowerupType string

const (
	PowerupReverse   PowerupType = "reverse"
	PowerupTrap      PowerupType = "trap"
	PowerupExtraWord PowerupType = "extraWord"
)

// AllPowerupTypes lists every powerup, in the order used for random grants
var AllPowerupTypes = []PowerupType{PowerupReverse, PowerupTrap, PowerupExtraWord}

// IsValidPowerupType reports whether s names a known powerup
func IsValidPowerupType(s string) bool {
	switch PowerupType(s) {
	case PowerupReverse, PowerupTrap, PowerupExtraWord:
		return true
	}
	return false
}

// Player represents a participant in a room
type Player struct {
	ID          PlayerID      `json:"id"`
	Name        string        `json:"name"`
	AvatarColor string        `json:"avatarColor"`
	AvatarData  string        `json:"avatarData,omitempty"`
	Score       int           `json:"score"`
	Lives       int           `json:"lives"`
	Powerups    []PowerupType `json:"powerups"`

	// Wordmaster-only transient state; zero-valued in classic mode
	WordPiece  string `json:"wordPiece,omitempty"`
	TimeLeft   int    `json:"timeLeft,omitempty"`
	RoundScore int    `json:"roundScore,omitempty"`

	ExtraWordRequired bool `json:"extraWordRequired,omitempty"`
	IsHost            bool `json:"isHost"`
}

// HasPowerup reports whether the player holds at least one instance of pt
func (p *Player) HasPowerup(pt PowerupType) bool {
	for _, have := range p.Powerups {
		if have == pt {
			return true
		}
	}
	return false
}

// RemovePowerup removes one instance of pt from the player's inventory.
// It reports whether an instance was found and removed.
func (p *Player) RemovePowerup(pt PowerupType) bool {
	for i, have := range p.Powerups {
		if have == pt {
			p.Powerups = append(p.Powerups[:i], p.Powerups[i+1:]...)
			return true
		}
	}
	return false
}
