package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"hexduel/game"
)

// ErrRoomClosed 房间协程已退出（被回收或停服）
var ErrRoomClosed = errors.New("room closed")

// RoomOptions 创建房间所需参数
type RoomOptions struct {
	Rules        game.Rules
	IdleTimeout  time.Duration // <=0 表示不回收
	Housekeeping time.Duration // 回收检查间隔，默认 5s
	InboxSize    int
	Rand         *rand.Rand // 测试注入；nil 使用随机种子
}

// Room 一局对战：对局状态只由房间协程读写，外部通过 inbox 投递命令
type Room struct {
	ID string

	log     *zap.SugaredLogger
	metrics *RoomMetrics
	match   *game.Match
	members []member // 按入座顺序

	inbox    chan any
	quit     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	nMembers atomic.Int32

	idleTimeout  time.Duration
	housekeeping time.Duration
	lastActive   time.Time
	now          func() time.Time
	onIdle       func(*Room)
}

// 房间命令
type (
	joinCmd struct {
		id    PlayerID
		conn  Conn
		reply chan joinResult
	}
	joinResult struct {
		role game.Role
		err  error
	}
	leaveCmd struct {
		id PlayerID
	}
	rulesQuery struct {
		reply chan game.Rules
	}
	rulesUpdate struct {
		patch game.RulesPatch
		reply chan rulesResult
	}
	rulesResult struct {
		rules game.Rules
		err   error
	}
)

// NewRoom 创建房间，初始化数据结构；需调用 Start 启动房间协程
func NewRoom(id string, opts RoomOptions, log *zap.SugaredLogger) (*Room, error) {
	match, err := game.NewMatch(id, opts.Rules, opts.Rand)
	if err != nil {
		return nil, err
	}
	if opts.Housekeeping <= 0 {
		opts.Housekeeping = 5 * time.Second
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256 // 足够缓冲，避免网络读阻塞
	}
	return &Room{
		ID:           id,
		log:          log.With("room", id),
		metrics:      &RoomMetrics{},
		match:        match,
		inbox:        make(chan any, opts.InboxSize),
		quit:         make(chan struct{}),
		idleTimeout:  opts.IdleTimeout,
		housekeeping: opts.Housekeeping,
		lastActive:   time.Now(),
		now:          time.Now,
	}, nil
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Members 当前在线成员数
func (r *Room) Members() int { return int(r.nMembers.Load()) }

// Join 入座并等待房间协程的答复
func (r *Room) Join(ctx context.Context, id PlayerID, conn Conn) (game.Role, error) {
	reply := make(chan joinResult, 1)
	if err := r.send(ctx, joinCmd{id: id, conn: conn, reply: reply}); err != nil {
		return game.RoleNone, err
	}
	select {
	case res := <-reply:
		return res.role, res.err
	case <-ctx.Done():
		return game.RoleNone, ctx.Err()
	case <-r.quit:
		return game.RoleNone, ErrRoomClosed
	}
}

// OnAction 入站行动（不阻塞），通道满时丢弃并计数
func (r *Room) OnAction(a Action) bool {
	select {
	case r.inbox <- a:
		return true
	default:
		r.metrics.IncChanFullDiscarded()
		return false
	}
}

// RequestLeave 请求在房间协程中移除成员，避免并发改动房间状态
func (r *Room) RequestLeave(id PlayerID) {
	select {
	case r.inbox <- leaveCmd{id: id}:
	case <-r.quit:
	}
}

// Rules 读取当前规则
func (r *Room) Rules(ctx context.Context) (game.Rules, error) {
	reply := make(chan game.Rules, 1)
	if err := r.send(ctx, rulesQuery{reply: reply}); err != nil {
		return game.Rules{}, err
	}
	select {
	case rules := <-reply:
		return rules, nil
	case <-ctx.Done():
		return game.Rules{}, ctx.Err()
	case <-r.quit:
		return game.Rules{}, ErrRoomClosed
	}
}

// UpdateRules 在房间协程内合并部分更新，返回合并后的规则
// 开局后返回 game.ErrRulesLocked
func (r *Room) UpdateRules(ctx context.Context, patch game.RulesPatch) (game.Rules, error) {
	reply := make(chan rulesResult, 1)
	if err := r.send(ctx, rulesUpdate{patch: patch, reply: reply}); err != nil {
		return game.Rules{}, err
	}
	select {
	case res := <-reply:
		return res.rules, res.err
	case <-ctx.Done():
		return game.Rules{}, ctx.Err()
	case <-r.quit:
		return game.Rules{}, ErrRoomClosed
	}
}

func (r *Room) send(ctx context.Context, cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.quit:
		return ErrRoomClosed
	}
}

// handle 处理单条命令，仅在房间协程（或测试）中调用
func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- r.handleJoin(c)
	case Action:
		r.handleAction(c)
	case leaveCmd:
		r.handleLeave(c.id)
	case rulesQuery:
		c.reply <- r.match.Rules()
	case rulesUpdate:
		next := c.patch.Apply(r.match.Rules())
		err := r.match.SetRules(next)
		if err != nil {
			r.log.Warnw("rules update rejected", "err", err)
		} else {
			r.log.Infow("rules updated", "rules", next)
		}
		c.reply <- rulesResult{rules: r.match.Rules(), err: err}
	default:
		r.log.Warnw("unknown room command", "cmd", cmd)
	}
}

func (r *Room) handleJoin(c joinCmd) joinResult {
	r.lastActive = r.now()
	role, err := r.match.Join(string(c.id))
	if errors.Is(err, game.ErrRoomFull) {
		r.log.Infow("room full", "player", c.id)
		r.sendTo(c.conn, MsgRoomFull, RoomFullPayload{Room: r.ID})
		return joinResult{err: err}
	}
	if err != nil {
		r.log.Warnw("join rejected", "player", c.id, "err", err)
		return joinResult{err: err}
	}

	r.members = append(r.members, member{id: c.id, conn: c.conn})
	r.nMembers.Store(int32(len(r.members)))
	r.log.Infow("player joined", "player", c.id, "role", role)

	r.sendTo(c.conn, MsgJoined, JoinedPayload{Room: r.ID, PlayerID: string(c.id), Role: role})
	r.broadcast(MsgPlayerJoined, PlayerJoinedPayload{PlayerID: string(c.id), Role: role})
	if r.match.Started() {
		r.log.Infow("game start", "rules", r.match.Rules())
		r.broadcast(MsgGameStart, GameStartPayload{Room: r.ID, Rules: r.match.Rules()})
	}
	r.broadcastState(nil)
	return joinResult{role: role}
}

func (r *Room) handleAction(a Action) {
	if r.memberIndex(a.PlayerID) < 0 {
		r.metrics.IncDropped()
		return
	}
	start := time.Now()
	report, err := r.match.Submit(string(a.PlayerID), a.Target, a.Shoot)
	if err != nil {
		r.metrics.IncDropped()
		r.log.Debugw("action dropped", "player", a.PlayerID, "target", a.Target, "shoot", a.Shoot, "err", err)
	} else {
		r.metrics.IncAccepted()
	}
	if report == nil {
		return
	}

	r.metrics.AddRound(time.Since(start).Nanoseconds(), report.Collision, report.Shrunk, len(report.Eliminated))
	r.log.Infow("round resolved",
		"round", report.Round,
		"collision", report.Collision,
		"shots", len(report.Shots),
		"pickups", report.Pickups,
		"eliminated", report.Eliminated,
		"shrunk", report.Shrunk,
		"radius", r.match.Radius(),
	)
	if report.CardLost {
		r.log.Warnw("no valid card placement", "round", report.Round)
	}
	if r.match.Phase() == game.PhaseFinished {
		r.log.Infow("match finished", "winner", r.match.Winner())
	}
	r.broadcastState(report)
}

func (r *Room) handleLeave(id PlayerID) {
	i := r.memberIndex(id)
	if i < 0 {
		return
	}
	r.members[i].conn.Close()
	r.members = append(r.members[:i], r.members[i+1:]...)
	r.nMembers.Store(int32(len(r.members)))
	r.lastActive = r.now()
	r.log.Infow("player left", "player", id)
}

func (r *Room) memberIndex(id PlayerID) int {
	for i, m := range r.members {
		if m.id == id {
			return i
		}
	}
	return -1
}

// broadcast 同一消息发给所有成员
func (r *Room) broadcast(t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		r.log.Errorw("encode failed", "type", t, "err", err)
		return
	}
	for _, m := range r.members {
		r.enqueue(m.conn, b)
	}
}

// broadcastState 按接收者投影对局快照与结算摘要后逐个发送
func (r *Room) broadcastState(last *game.RoundReport) {
	for _, m := range r.members {
		view := game.View(r.match, string(m.id))
		var role game.Role
		if view.You != nil {
			role = view.You.Role
		}
		r.sendTo(m.conn, MsgMatchState, StatePayload{
			MatchView: view,
			Last:      last.For(role),
		})
	}
}

func (r *Room) sendTo(c Conn, t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		r.log.Errorw("encode failed", "type", t, "err", err)
		return
	}
	r.enqueue(c, b)
}

func (r *Room) enqueue(c Conn, b []byte) {
	if !c.Enqueue(b) {
		r.metrics.IncChanFullDiscarded()
	}
}
