package game

// shoot 从射击者当前位置沿 aim 方向逐格推进的直线射线
//
// 目标：对手也在射击时为其当前位置（原地不动），否则为其待执行的目标格。
// 射线遇到卡牌即摧毁卡牌并终止；命中未免疫的目标则淘汰对手；出界为未命中。
func (m *Match) shoot(shooter *Player, aim Hex, rep *RoundReport) Shot {
	dir := aim.Sub(shooter.Position)
	shot := Shot{Shooter: shooter.Role, From: shooter.Position, Dir: dir, Outcome: ShotMiss}
	if !dir.IsDirection() {
		return shot
	}

	opp := m.opponent(shooter)
	target := opp.Position
	if !opp.Intent.Firing() {
		target = opp.PendingMove.v
	}

	for cur := shooter.Position.Add(dir); m.Playable(cur); cur = cur.Add(dir) {
		if m.card.Is(cur) {
			// 卡牌阻挡视线
			if err := m.respawnCard(); err != nil {
				rep.CardLost = true
			}
			shot.Outcome = ShotCardDestroyed
			return shot
		}
		if cur == target {
			if !opp.Immune {
				m.eliminate(opp, rep)
				shot.Outcome = ShotHit
				return shot
			}
			shot.Outcome = ShotShielded
		}
	}
	return shot
}
