package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	ActionsAccepted   int64 // 被接受的行动数
	ActionsDropped    int64 // 被规则拒绝的行动数（非法移动、未开局等）
	RateLimited       int64 // 因连接限流被丢弃的消息数
	ChanFullDiscarded int64 // 因通道或发送队列满被丢弃的消息数
	RoundsResolved    int64 // 结算的回合数（含碰撞回合）
	Collisions        int64
	Shrinks           int64
	Eliminations      int64
	TotalResolveNs    int64 // 结算累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.ActionsAccepted, 1) }
func (m *RoomMetrics) IncDropped()           { atomic.AddInt64(&m.ActionsDropped, 1) }
func (m *RoomMetrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }

// AddRound 记录一次结算
func (m *RoomMetrics) AddRound(ns int64, collision, shrunk bool, eliminated int) {
	atomic.AddInt64(&m.RoundsResolved, 1)
	atomic.AddInt64(&m.TotalResolveNs, ns)
	if collision {
		atomic.AddInt64(&m.Collisions, 1)
	}
	if shrunk {
		atomic.AddInt64(&m.Shrinks, 1)
	}
	atomic.AddInt64(&m.Eliminations, int64(eliminated))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	rounds := atomic.LoadInt64(&m.RoundsResolved)
	total := atomic.LoadInt64(&m.TotalResolveNs)
	var avgUs float64
	if rounds > 0 {
		avgUs = float64(total) / float64(rounds) / 1e3
	}
	return map[string]any{
		"actions_accepted":    atomic.LoadInt64(&m.ActionsAccepted),
		"actions_dropped":     atomic.LoadInt64(&m.ActionsDropped),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"rounds_resolved":     rounds,
		"collisions":          atomic.LoadInt64(&m.Collisions),
		"shrinks":             atomic.LoadInt64(&m.Shrinks),
		"eliminations":        atomic.LoadInt64(&m.Eliminations),
		"avg_resolve_us":      avgUs,
	}
}
