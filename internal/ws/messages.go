package ws

// Intent types a client may send
const (
	IntentListRooms     = "listRooms"
	IntentCreateRoom    = "createRoom"
	IntentJoinRoom      = "joinRoom"
	IntentLeaveRoom     = "leaveRoom"
	IntentStartGame     = "startGame"
	IntentSubmitWord    = "submitWord"
	IntentUsePowerup    = "usePowerup"
	IntentGetDefinition = "getDefinition"
)

// Intent is the client-to-server message envelope. Fields beyond Type are
// populated per intent; unused ones stay empty.
type Intent struct {
	Type string `json:"type"`

	// createRoom
	Mode        string `json:"mode,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	AvatarColor string `json:"avatarColor,omitempty"`
	AvatarData  string `json:"avatarData,omitempty"`

	// joinRoom
	RoomID string `json:"roomId,omitempty"`

	// submitWord, getDefinition
	Word string `json:"word,omitempty"`

	// usePowerup
	PowerupType    string `json:"powerupType,omitempty"`
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}
