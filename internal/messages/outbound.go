package messages

// Outbound event types sent to clients. Events marked sender-only are
// never broadcast.
const (
	EventPlayerRole    = "playerrole"    // sender only
	EventSpectatorRole = "spectatorrole" // sender only
	EventBoardState    = "boardstate"
	EventTurnChange    = "turnChange"
	EventTimeUpdate    = "timeUpdate"
	EventMoveMade      = "moveMade"
	EventInvalidMove   = "invalidMove" // sender only
	EventGameStarted   = "gameStarted"
	EventGameStatus    = "gameStatus"
	EventGameOver      = "gameOver"
	EventGameSaved     = "gameSaved"
	EventGameReset     = "gameReset"
	EventPlayersUpdate = "playersUpdate"
	EventChatMessage   = "chatMessage"
	EventError         = "error" // sender only
)

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// PlayerRolePayload tells a connection which seat it was assigned
type PlayerRolePayload struct {
	Side string `json:"side"`
}

// BoardStatePayload carries the serialized position after every change
type BoardStatePayload struct {
	Position string `json:"position"`
}

// TurnChangePayload announces which side is to move
type TurnChangePayload struct {
	Side string `json:"side"`
}

// TimeUpdatePayload carries both remaining clocks in milliseconds
type TimeUpdatePayload struct {
	WhiteMs int64 `json:"whiteMs"`
	BlackMs int64 `json:"blackMs"`
}

// MoveMadePayload carries the accepted move in algebraic notation
type MoveMadePayload struct {
	Notation string `json:"notation"`
}

// InvalidMovePayload explains a rejected move to its sender
type InvalidMovePayload struct {
	Reason string `json:"reason"`
}

// GameStartedPayload is broadcast once both seats are filled
type GameStartedPayload struct {
	Position string `json:"position"`
	Turn     string `json:"turn"`
	WhiteMs  int64  `json:"whiteMs"`
	BlackMs  int64  `json:"blackMs"`
}

// GameStatusPayload reports the session status, "waiting" or "playing"
type GameStatusPayload struct {
	Status string `json:"status"`
}

// GameOverPayload announces the terminal result to all clients
type GameOverPayload struct {
	Winner  string `json:"winner"`
	Cause   string `json:"cause"`
	Message string `json:"message"`
}

// GameSavedPayload reports the persisted record id, null when the
// store was unavailable
type GameSavedPayload struct {
	RecordID *string `json:"recordId"`
}

// PlayersUpdatePayload reports seat occupancy after connect/disconnect
type PlayersUpdatePayload struct {
	WhiteOccupied bool `json:"whiteOccupied"`
	BlackOccupied bool `json:"blackOccupied"`
}

// ChatMessagePayload relays a chat line to every connection
type ChatMessagePayload struct {
	Text string `json:"text"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
