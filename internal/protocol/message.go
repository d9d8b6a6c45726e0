package protocol

import (
	"encoding/json"

	"solitaire-game/internal/cards"
)

// Message is the generic WebSocket message envelope.
type Message struct {
	Type    string          `json:"type"`              // e.g. "create_game", "move"
	Payload json.RawMessage `json:"payload,omitempty"` // raw JSON, decoded per type
}

// --- Client -> Server payloads ---

type CreateGamePayload struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility,omitempty"` // "public" (default), "friends", "private"
}

type JoinGamePayload struct {
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

// MovePayload names a card transfer. Piles are "tableau", "foundation" or
// "talon". Talon sources ignore src_index; foundation destinations ignore
// dst_index.
type MovePayload struct {
	SrcPile      string `json:"src_pile"`
	SrcIndex     int    `json:"src_index"`
	SrcCardIndex int    `json:"src_card_index"`
	DstPile      string `json:"dst_pile"`
	DstIndex     int    `json:"dst_index"`
}

// --- Server -> Client payloads ---

type GameCreatedPayload struct {
	GameCode string `json:"game_code"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GameInfo struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// GameListPayload carries the public games listing.
type GameListPayload struct {
	Games []GameInfo `json:"games"`
}

// GameStatePayload carries a full render of a solitaire game. Cards travel
// as their 16-bit numeric identities.
type GameStatePayload struct {
	GameCode    string         `json:"game_code"`
	State       string         `json:"state"`
	Players     []PlayerInfo   `json:"players"`
	Foundations [][]cards.Card `json:"foundations"`
	Tableaus    [][]cards.Card `json:"tableaus"`
	Visibility  []int          `json:"visibility"`
	TalonCount  int            `json:"talon_count"`
	TalonIndex  int            `json:"talon_index"`
	TalonCard   cards.Card     `json:"talon_card"` // 0 when nothing is revealed
	Moves       int            `json:"moves"`
}

// NewMessage marshals a typed payload into an envelope.
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: payloadBytes})
}
