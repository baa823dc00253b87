package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"hexduel/game"
)

// 消息类型
const (
	MsgJoin   = "join"
	MsgAction = "action"

	MsgJoined       = "joined"
	MsgRoomFull     = "roomFull"
	MsgPlayerJoined = "playerJoined"
	MsgGameStart    = "gameStart"
	MsgMatchState   = "matchState"
)

// Envelope 所有 WebSocket 文本消息的外层结构
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var errEmptyMessage = errors.New("empty message")

// Encode 将负载包装为信封
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("encode: empty message type")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errEmptyMessage
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.Type == "" {
		return Envelope{}, errors.New("missing message type")
	}
	return e, nil
}

// DecodePayload 解析信封负载；空负载得到零值
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, nil
	}
	err := json.Unmarshal(env.Payload, &out)
	return out, err
}

// 出站负载

type JoinedPayload struct {
	Room     string    `json:"room"`
	PlayerID string    `json:"playerId"`
	Role     game.Role `json:"role"`
}

type RoomFullPayload struct {
	Room string `json:"room"`
}

type PlayerJoinedPayload struct {
	PlayerID string    `json:"playerId"`
	Role     game.Role `json:"role"`
}

type GameStartPayload struct {
	Room  string     `json:"room"`
	Rules game.Rules `json:"rules"`
}

// StatePayload 按接收者投影的对局快照，附带最近一次结算摘要
type StatePayload struct {
	game.MatchView
	Last *game.RoundReport `json:"last,omitempty"`
}
