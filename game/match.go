package game

import (
	"fmt"
	"math/rand/v2"
)

// Phase 对局阶段
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Match 单个房间的对局状态，只由 Join 与 Submit 修改
// 非并发安全：调用方须保证同一 Match 的访问串行
type Match struct {
	ID string

	rules Rules
	rng   *rand.Rand

	grid   *Grid // 初始半径的完整网格
	radius int
	void   map[Hex]struct{}
	card   Opt[Hex]
	round  int

	players [2]*Player // 按 Role 下标
	started bool
	settled bool // 本回合开始前已分出胜负，结果不再改变
}

// NewMatch 创建空对局；rng 为 nil 时使用随机种子
func NewMatch(id string, rules Rules, rng *rand.Rand) (*Match, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Match{
		ID:     id,
		rules:  rules,
		rng:    rng,
		grid:   NewGrid(rules.Radius),
		radius: rules.Radius,
		void:   make(map[Hex]struct{}),
	}, nil
}

// SetRules 仅在开局前允许
func (m *Match) SetRules(rules Rules) error {
	if m.started {
		return ErrRulesLocked
	}
	if err := rules.Validate(); err != nil {
		return err
	}
	m.rules = rules
	m.grid = NewGrid(rules.Radius)
	m.radius = rules.Radius
	return nil
}

func (m *Match) Rules() Rules { return m.rules }

func (m *Match) Radius() int { return m.radius }

func (m *Match) Round() int { return m.round }

func (m *Match) Card() Opt[Hex] { return m.card }

func (m *Match) Grid() *Grid { return m.grid }

func (m *Match) Started() bool { return m.started }

func (m *Match) Phase() Phase {
	switch {
	case !m.started:
		return PhaseWaiting
	case m.finished():
		return PhaseFinished
	default:
		return PhaseInProgress
	}
}

func (m *Match) finished() bool {
	for _, p := range m.players {
		if p != nil && !p.Alive {
			return true
		}
	}
	return false
}

// Winner 仅一方存活时返回其身份
func (m *Match) Winner() Role {
	if !m.started {
		return RoleNone
	}
	var alive []Role
	for _, p := range m.players {
		if p != nil && p.Alive {
			alive = append(alive, p.Role)
		}
	}
	if len(alive) == 1 && m.finished() {
		return alive[0]
	}
	return RoleNone
}

// Player 按 ID 查找
func (m *Match) Player(id string) (*Player, bool) {
	for _, p := range m.players {
		if p != nil && p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PlayerByRole 按身份查找
func (m *Match) PlayerByRole(r Role) (*Player, bool) {
	if r != RoleAstronaut && r != RoleAlien {
		return nil, false
	}
	p := m.players[r.index()]
	return p, p != nil
}

// Players 已加入的玩家，按身份顺序
func (m *Match) Players() []*Player {
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) opponent(p *Player) *Player {
	o, _ := m.PlayerByRole(p.Role.Opponent())
	return o
}

// VoidHexes 当前已消失的格子，按网格顺序
func (m *Match) VoidHexes() []Hex {
	out := make([]Hex, 0, len(m.void))
	for _, h := range m.grid.Hexes() {
		if m.isVoid(h) {
			out = append(out, h)
		}
	}
	return out
}

// WarningHexes 下次缩圈将消失的外环；已到最小半径时为空
func (m *Match) WarningHexes() []Hex {
	if m.radius <= m.rules.MinRadius {
		return nil
	}
	return m.grid.Ring(m.radius)
}

// RoundsUntilShrink 距下次缩圈还需结算的回合数；不再缩圈时为 0
func (m *Match) RoundsUntilShrink() int {
	if m.radius <= m.rules.MinRadius {
		return 0
	}
	return m.rules.ShrinkEvery - m.round%m.rules.ShrinkEvery
}

// Playable 格子在网格内且未消失
func (m *Match) Playable(h Hex) bool {
	return m.grid.Contains(h) && !m.isVoid(h)
}

func (m *Match) isVoid(h Hex) bool {
	_, ok := m.void[h]
	return ok
}

// Join 分配第一个空缺身份（宇航员优先）；第二人加入时开局
func (m *Match) Join(playerID string) (Role, error) {
	if _, ok := m.Player(playerID); ok {
		return RoleNone, fmt.Errorf("%w: %s", ErrAlreadyJoined, playerID)
	}
	for _, r := range roles {
		if m.players[r.index()] != nil {
			continue
		}
		m.players[r.index()] = newPlayer(playerID, r)
		if m.players[0] != nil && m.players[1] != nil {
			m.start()
		}
		return r, nil
	}
	return RoleNone, fmt.Errorf("%w: %s", ErrRoomFull, m.ID)
}

func (m *Match) start() {
	m.placePlayers()
	// 无处可放时卡牌暂缺
	_ = m.respawnCard()
	m.started = true
}

// placePlayers 随机放置两名玩家：互不重叠且距离不小于 SpawnMinDistance
// 棋盘过小时要求降为棋盘直径
func (m *Match) placePlayers() {
	minDist := min(m.rules.SpawnMinDistance, 2*m.radius)
	minDist = max(minDist, 1)
	hexes := m.grid.Hexes()

	var anchors []Hex
	for _, h := range hexes {
		// 离中心 d 的格子，最远可达对侧 d+radius
		if h.DistanceTo(Origin)+m.radius >= minDist {
			anchors = append(anchors, h)
		}
	}
	a := pick(m.rng, anchors)
	var partners []Hex
	for _, h := range hexes {
		if h.DistanceTo(a) >= minDist {
			partners = append(partners, h)
		}
	}
	b := pick(m.rng, partners)

	first, second := m.players[0], m.players[1]
	first.Position, first.LastSeen = a, a
	second.Position, second.LastSeen = b, b
}
