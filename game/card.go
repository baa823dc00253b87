package game

import "math/rand/v2"

// spawnCard 选择新的卡牌位置：
// 候选 = 网格内、非玩家所在、非虚空、非当前卡牌位置的格子；
// 优先选取距两名玩家都 ≥ CardSpacing 的格子，否则退回全部候选；都没有则返回 None。
func (m *Match) spawnCard() Opt[Hex] {
	candidates := make([]Hex, 0, m.grid.Len())
	for _, h := range m.grid.Hexes() {
		if m.occupied(h) || m.isVoid(h) || m.card.Is(h) {
			continue
		}
		candidates = append(candidates, h)
	}
	preferred := make([]Hex, 0, len(candidates))
	for _, h := range candidates {
		if m.farFromPlayers(h, m.rules.CardSpacing) {
			preferred = append(preferred, h)
		}
	}
	switch {
	case len(preferred) > 0:
		return Some(pick(m.rng, preferred))
	case len(candidates) > 0:
		return Some(pick(m.rng, candidates))
	default:
		return None[Hex]()
	}
}

// respawnCard 替换卡牌；无处可放时卡牌暂缺，等待后续回合
func (m *Match) respawnCard() error {
	m.card = m.spawnCard()
	if !m.card.IsSet() {
		return ErrNoValidCardPlacement
	}
	return nil
}

func (m *Match) occupied(h Hex) bool {
	for _, p := range m.players {
		if p != nil && p.Position == h {
			return true
		}
	}
	return false
}

func (m *Match) farFromPlayers(h Hex, dist int) bool {
	for _, p := range m.players {
		if p != nil && h.DistanceTo(p.Position) < dist {
			return false
		}
	}
	return true
}

func pick[T any](rng *rand.Rand, s []T) T {
	return s[rng.IntN(len(s))]
}
