package messages

import "encoding/json"

// Inbound event types sent by clients.
const (
	TypeMove        = "move"
	TypeResign      = "resign"
	TypeNewGame     = "newGame"
	TypeChatMessage = "chatMessage"
)

// InboundMessage is the generic wrapper for messages coming from the client.
// The "type" field tells us the action; "payload" is the data we parse further.
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MovePayload represents the payload for submitting a move
type MovePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ChatPayload represents a chat message to relay to all clients
type ChatPayload struct {
	Text string `json:"text"`
}
