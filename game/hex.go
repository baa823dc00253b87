// Package game 实现六边形对战的权威回合结算：几何、网格、对局状态、
// 同步回合状态机、射击射线、卡牌刷新与缩圈淘汰。
// 本包不做 I/O，也不启动协程；并发串行化由调用方（server.Room）负责。
package game

import "fmt"

// Hex 轴向坐标 (q, r)，第三分量 s = -q - r 由计算得出
type Hex struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Origin 棋盘中心
var Origin = Hex{}

// Directions 六个单位方向，顺序固定
var Directions = [6]Hex{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

func NewHex(q, r int) Hex { return Hex{Q: q, R: r} }

// S 立方坐标的第三分量
func (h Hex) S() int { return -h.Q - h.R }

func (h Hex) Add(o Hex) Hex { return Hex{Q: h.Q + o.Q, R: h.R + o.R} }

func (h Hex) Sub(o Hex) Hex { return Hex{Q: h.Q - o.Q, R: h.R - o.R} }

// DistanceTo 六边形距离 (|Δq| + |Δr| + |Δs|) / 2
func (h Hex) DistanceTo(o Hex) int {
	return (abs(h.Q-o.Q) + abs(h.R-o.R) + abs(h.S()-o.S())) / 2
}

// Neighbors 按 Directions 顺序返回六个相邻格
func (h Hex) Neighbors() [6]Hex {
	var out [6]Hex
	for i, d := range Directions {
		out[i] = h.Add(d)
	}
	return out
}

func (h Hex) IsNeighbor(o Hex) bool {
	return h.DistanceTo(o) == 1
}

// IsDirection 是否为六个单位方向之一
func (h Hex) IsDirection() bool {
	for _, d := range Directions {
		if h == d {
			return true
		}
	}
	return false
}

func (h Hex) String() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
