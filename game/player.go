package game

import (
	"encoding/json"
	"fmt"
)

// Role 玩家身份，非对称：每局每种身份仅一人
type Role uint8

const (
	RoleNone Role = iota
	RoleAstronaut
	RoleAlien
)

// roles 按加入优先级排列
var roles = [2]Role{RoleAstronaut, RoleAlien}

func (r Role) String() string {
	switch r {
	case RoleAstronaut:
		return "astronaut"
	case RoleAlien:
		return "alien"
	default:
		return "none"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "astronaut":
		*r = RoleAstronaut
	case "alien":
		*r = RoleAlien
	case "none", "":
		*r = RoleNone
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
	return nil
}

// Opponent 对手身份
func (r Role) Opponent() Role {
	switch r {
	case RoleAstronaut:
		return RoleAlien
	case RoleAlien:
		return RoleAstronaut
	default:
		return RoleNone
	}
}

func (r Role) index() int { return int(r) - 1 }

// Intent 本回合射击意图（回合内锁存）
type Intent uint8

const (
	IntentUndeclared Intent = iota // 本回合尚未声明
	IntentHold                     // 不射击，正常移动
	IntentFire                     // 射击，本回合原地不动
)

func IntentOf(shoot bool) Intent {
	if shoot {
		return IntentFire
	}
	return IntentHold
}

func (i Intent) Declared() bool { return i != IntentUndeclared }

func (i Intent) Firing() bool { return i == IntentFire }

// Opt 显式可选值，替代可空字段
type Opt[T comparable] struct {
	v  T
	ok bool
}

func Some[T comparable](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

func None[T comparable]() Opt[T] { return Opt[T]{} }

func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

func (o Opt[T]) IsSet() bool { return o.ok }

// Ptr 便于序列化为 null
func (o Opt[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Ptr())
}

// Is 已设置且等于 v
func (o Opt[T]) Is(v T) bool { return o.ok && o.v == v }

// Player 对局内的玩家（服务端权威状态）
type Player struct {
	ID       string
	Role     Role
	Position Hex
	LastSeen Hex // 对手可见的最近暴露位置
	Cards    int

	PendingMove Opt[Hex]
	Intent      Intent

	Alive          bool
	Immune         bool
	JustPickedCard bool
}

func newPlayer(id string, role Role) *Player {
	return &Player{ID: id, Role: role, Alive: true}
}

// Submitted 本回合是否已提交移动
func (p *Player) Submitted() bool { return p.PendingMove.IsSet() }

func (p *Player) resetRound() {
	if !p.JustPickedCard {
		p.Immune = false
	}
	p.PendingMove = None[Hex]()
	p.Intent = IntentUndeclared
}
