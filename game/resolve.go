package game

import "fmt"

// ShotOutcome 一次射击的结果
type ShotOutcome string

const (
	ShotMiss          ShotOutcome = "miss"
	ShotHit           ShotOutcome = "hit"
	ShotCardDestroyed ShotOutcome = "card_destroyed"
	ShotShielded      ShotOutcome = "shielded" // 射线经过免疫的目标后出界
)

// Shot 射击记录
type Shot struct {
	Shooter Role        `json:"shooter"`
	From    Hex         `json:"from"`
	Dir     Hex         `json:"dir"`
	Outcome ShotOutcome `json:"outcome"`
}

// RoundReport 一次回合结算的摘要，供日志、指标与广播使用
type RoundReport struct {
	Round      int    `json:"round"`
	Shots      []Shot `json:"shots,omitempty"`
	Collision  bool   `json:"collision,omitempty"`
	Blocked    []Role `json:"blocked,omitempty"`
	Pickups    []Role `json:"pickups,omitempty"`
	Shrunk     bool   `json:"shrunk,omitempty"`
	Eliminated []Role `json:"eliminated,omitempty"`
	CardLost   bool   `json:"cardLost,omitempty"` // 卡牌无处可放
}

// Submit 处理玩家 P 的行动：目标格 target，是否射击 shoot
//
// 返回的 error 包装 ErrInvalidAction 等哨兵错误，仅用于服务端日志与计数，
// 不回传客户端。注意射击意图在移动被拒绝前已锁存。
// 所有玩家都提交移动后立即结算，返回非 nil 的 RoundReport。
func (m *Match) Submit(playerID string, target Hex, shoot bool) (*RoundReport, error) {
	p, ok := m.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if !m.started {
		return nil, ErrNotStarted
	}
	if !m.Playable(target) {
		return nil, fmt.Errorf("%w: %s not playable", ErrInvalidAction, target)
	}

	if !p.Intent.Declared() {
		p.Intent = IntentOf(shoot)
	}

	var rejected error
	switch {
	case p.PendingMove.IsSet():
		rejected = fmt.Errorf("%w: move already committed this round", ErrInvalidAction)
	case target == p.Position:
		rejected = fmt.Errorf("%w: %s is current position", ErrInvalidAction, target)
	case !p.Position.IsNeighbor(target):
		rejected = fmt.Errorf("%w: %s not adjacent to %s", ErrInvalidAction, target, p.Position)
	default:
		p.PendingMove = Some(target)
	}

	// 回合内标记：任何新行动都会清除，不等到结算
	for _, pl := range m.players {
		pl.JustPickedCard = false
	}

	for _, pl := range m.players {
		if !pl.Submitted() {
			return nil, rejected
		}
	}
	return m.resolve(), rejected
}

// resolve 按固定顺序结算：射击 → 碰撞 → 移动 → 拾卡 → 计数与缩圈 → 圈外淘汰 → 重置
func (m *Match) resolve() *RoundReport {
	rep := &RoundReport{}
	m.settled = m.finished()

	for _, p := range m.players {
		// 已出局的玩家射击意图只让其原地不动
		if !p.Intent.Firing() || !p.Alive {
			continue
		}
		p.LastSeen = p.Position
		rep.Shots = append(rep.Shots, m.shoot(p, p.PendingMove.v, rep))
	}

	if m.collided() {
		rep.Collision = true
		for _, p := range m.players {
			p.LastSeen = p.PendingMove.v
		}
		m.endRound(rep)
		return rep
	}

	for _, p := range m.players {
		if p.Intent.Firing() {
			continue
		}
		// 射击者原地不动，不能移动到其所在格
		if o := m.opponent(p); o.Intent.Firing() && p.PendingMove.Is(o.Position) {
			rep.Blocked = append(rep.Blocked, p.Role)
			continue
		}
		p.Position = p.PendingMove.v
	}

	for _, p := range m.players {
		// 卡牌已满时不拾取，卡牌留在原处
		if !m.card.Is(p.Position) || p.Cards >= m.rules.WinCards {
			continue
		}
		p.Cards++
		p.Immune = true
		p.JustPickedCard = true
		p.LastSeen = p.Position
		rep.Pickups = append(rep.Pickups, p.Role)
		if err := m.respawnCard(); err != nil {
			rep.CardLost = true
		}
		if m.rules.WinCondition == WinByCards && p.Alive && p.Cards >= m.rules.WinCards {
			m.eliminate(m.opponent(p), rep)
		}
	}
	if m.rules.WinCondition == WinByCardsOnOrigin {
		for _, p := range m.players {
			if p.Alive && p.Cards >= m.rules.WinCards && p.Position == Origin {
				m.eliminate(m.opponent(p), rep)
			}
		}
	}

	m.round++
	if m.round%m.rules.ShrinkEvery == 0 && m.radius > m.rules.MinRadius {
		m.shrink()
		rep.Shrunk = true
		if m.card.IsSet() && m.isVoid(m.card.v) {
			if err := m.respawnCard(); err != nil {
				rep.CardLost = true
			}
		}
	}

	for _, p := range m.players {
		if p.Alive && m.isVoid(p.Position) {
			m.eliminate(p, rep)
		}
	}

	m.endRound(rep)
	return rep
}

// collided 两名非射击玩家的目标格相同
func (m *Match) collided() bool {
	a, b := m.players[0], m.players[1]
	if a.Intent.Firing() || b.Intent.Firing() {
		return false
	}
	return a.PendingMove == b.PendingMove
}

// shrink 半径减一，重算虚空格集合
func (m *Match) shrink() {
	m.radius--
	for _, h := range m.grid.Hexes() {
		if h.DistanceTo(Origin) > m.radius {
			m.void[h] = struct{}{}
		}
	}
}

func (m *Match) eliminate(p *Player, rep *RoundReport) {
	if p == nil || !p.Alive || m.settled {
		return
	}
	p.Alive = false
	rep.Eliminated = append(rep.Eliminated, p.Role)
}

func (m *Match) endRound(rep *RoundReport) {
	// 上次无处可放的卡牌，在有空位时补上
	if !m.card.IsSet() {
		if err := m.respawnCard(); err != nil {
			rep.CardLost = true
		}
	}
	rep.Round = m.round
	for _, p := range m.players {
		p.resetRound()
	}
}
