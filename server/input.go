package server

import "hexduel/game"

// Action 客户端行动（意图），由房间协程交给回合结算处理
type Action struct {
	PlayerID PlayerID
	Target   game.Hex
	Shoot    bool
}

// 入站消息负载
// 示例：{"type":"action","payload":{"target":{"q":1,"r":0},"shoot":false}}

type JoinMessage struct {
	Room string `json:"room,omitempty"`
}

type ActionMessage struct {
	Target *game.Hex `json:"target"`
	Shoot  bool      `json:"shoot"`
}
