package game

import "slices"

// PlayerView 某一名玩家在快照中的可见信息
// Position 对对手隐藏（对局结束后公开）
type PlayerView struct {
	ID        string `json:"playerId,omitempty"`
	Role      Role   `json:"role"`
	Position  *Hex   `json:"position,omitempty"`
	LastSeen  Hex    `json:"lastSeen"`
	Cards     int    `json:"cards"`
	Alive     bool   `json:"alive"`
	Immune    bool   `json:"immune"`
	Submitted bool   `json:"submitted"`
}

// MatchView 发给单个接收者的对局快照
type MatchView struct {
	Room              string      `json:"room"`
	Phase             Phase       `json:"phase"`
	Round             int         `json:"round"`
	Radius            int         `json:"radius"`
	Void              []Hex       `json:"void"`
	Warning           []Hex       `json:"warning"`
	RoundsUntilShrink int         `json:"roundsUntilShrink"`
	Card              *Hex        `json:"card"`
	Winner            Role        `json:"winner,omitempty"`
	You               *PlayerView `json:"you,omitempty"`
	Opponent          *PlayerView `json:"opponent,omitempty"`
}

// View 按接收者投影对局状态：自己的真实位置、对手的最近暴露位置、公共棋盘信息
// forPlayer 不在本局时只返回公共部分
func View(m *Match, forPlayer string) MatchView {
	v := MatchView{
		Room:              m.ID,
		Phase:             m.Phase(),
		Round:             m.round,
		Radius:            m.radius,
		Void:              m.VoidHexes(),
		Warning:           m.WarningHexes(),
		RoundsUntilShrink: m.RoundsUntilShrink(),
		Card:              m.card.Ptr(),
		Winner:            m.Winner(),
	}
	if v.Void == nil {
		v.Void = []Hex{}
	}
	if v.Warning == nil {
		v.Warning = []Hex{}
	}

	me, ok := m.Player(forPlayer)
	if !ok {
		return v
	}
	v.You = selfView(me, m.started)
	if opp := m.opponent(me); opp != nil {
		v.Opponent = opponentView(opp, m.started, v.Phase == PhaseFinished)
	}
	return v
}

func selfView(p *Player, placed bool) *PlayerView {
	pv := &PlayerView{
		ID:        p.ID,
		Role:      p.Role,
		LastSeen:  p.LastSeen,
		Cards:     p.Cards,
		Alive:     p.Alive,
		Immune:    p.Immune,
		Submitted: p.Submitted(),
	}
	if placed {
		pos := p.Position
		pv.Position = &pos
	}
	return pv
}

func opponentView(p *Player, placed, reveal bool) *PlayerView {
	pv := &PlayerView{
		Role:      p.Role,
		LastSeen:  p.LastSeen,
		Cards:     p.Cards,
		Alive:     p.Alive,
		Immune:    p.Immune,
		Submitted: p.Submitted(),
	}
	if placed && reveal {
		pos := p.Position
		pv.Position = &pos
	}
	return pv
}

// For 按接收者投影结算摘要：
// 只保留接收者自己被挡住的记录；接收者的射击被免疫挡下时记为未命中
func (rep *RoundReport) For(role Role) *RoundReport {
	if rep == nil {
		return nil
	}
	out := *rep
	out.Blocked = nil
	if slices.Contains(rep.Blocked, role) {
		out.Blocked = []Role{role}
	}
	out.Shots = nil
	for _, s := range rep.Shots {
		if s.Shooter == role && s.Outcome == ShotShielded {
			s.Outcome = ShotMiss
		}
		out.Shots = append(out.Shots, s)
	}
	return &out
}
