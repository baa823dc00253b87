package game

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomFull 两个身份都已有人
	ErrRoomFull = errors.New("room is full")
	// ErrAlreadyJoined 同一玩家重复加入
	ErrAlreadyJoined = errors.New("player already joined")
	// ErrUnknownPlayer 玩家不在本局
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrNotStarted 对局尚未开始（不足两人）
	ErrNotStarted = errors.New("match not started")
	// ErrInvalidAction 行动被丢弃：越界、非相邻、原地或本回合重复
	ErrInvalidAction = errors.New("invalid action")
	// ErrNoValidCardPlacement 没有可放置卡牌的格子，卡牌暂缺
	ErrNoValidCardPlacement = errors.New("no valid card placement")
	// ErrInvalidRules 规则参数非法
	ErrInvalidRules = errors.New("invalid rules")
	// ErrRulesLocked 对局开始后不允许修改规则
	ErrRulesLocked = errors.New("rules locked after match start")
)

// WinCondition 收集胜利的判定方式
type WinCondition string

const (
	// WinByCards 收集满卡牌即淘汰对手（默认）
	WinByCards WinCondition = "cards"
	// WinByCardsOnOrigin 收集满卡牌并站在中心格才淘汰对手
	WinByCardsOnOrigin WinCondition = "cards_on_origin"
)

// Rules 对局规则参数
type Rules struct {
	Radius           int          `json:"radius"`
	ShrinkEvery      int          `json:"shrinkEvery"`
	MinRadius        int          `json:"minRadius"`
	WinCards         int          `json:"winCards"`
	CardSpacing      int          `json:"cardSpacing"`      // 卡牌与玩家的优先最小距离
	SpawnMinDistance int          `json:"spawnMinDistance"` // 开局两名玩家的最小距离
	WinCondition     WinCondition `json:"winCondition"`
}

func DefaultRules() Rules {
	return Rules{
		Radius:           3,
		ShrinkEvery:      8,
		MinRadius:        1,
		WinCards:         3,
		CardSpacing:      2,
		SpawnMinDistance: 3,
		WinCondition:     WinByCards,
	}
}

func (r Rules) Validate() error {
	switch {
	case r.Radius < 1:
		return fmt.Errorf("%w: radius %d < 1", ErrInvalidRules, r.Radius)
	case r.MinRadius < 1 || r.MinRadius > r.Radius:
		return fmt.Errorf("%w: minRadius %d outside [1,%d]", ErrInvalidRules, r.MinRadius, r.Radius)
	case r.ShrinkEvery < 1:
		return fmt.Errorf("%w: shrinkEvery %d < 1", ErrInvalidRules, r.ShrinkEvery)
	case r.WinCards < 1:
		return fmt.Errorf("%w: winCards %d < 1", ErrInvalidRules, r.WinCards)
	case r.CardSpacing < 0 || r.SpawnMinDistance < 0:
		return fmt.Errorf("%w: negative distance", ErrInvalidRules)
	}
	switch r.WinCondition {
	case WinByCards, WinByCardsOnOrigin:
	default:
		return fmt.Errorf("%w: win condition %q", ErrInvalidRules, r.WinCondition)
	}
	return nil
}

// RulesPatch 部分更新；nil 字段保持原值
type RulesPatch struct {
	Radius           *int          `json:"radius,omitempty"`
	ShrinkEvery      *int          `json:"shrinkEvery,omitempty"`
	MinRadius        *int          `json:"minRadius,omitempty"`
	WinCards         *int          `json:"winCards,omitempty"`
	CardSpacing      *int          `json:"cardSpacing,omitempty"`
	SpawnMinDistance *int          `json:"spawnMinDistance,omitempty"`
	WinCondition     *WinCondition `json:"winCondition,omitempty"`
}

func (p RulesPatch) Apply(r Rules) Rules {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Radius, p.Radius)
	set(&r.ShrinkEvery, p.ShrinkEvery)
	set(&r.MinRadius, p.MinRadius)
	set(&r.WinCards, p.WinCards)
	set(&r.CardSpacing, p.CardSpacing)
	set(&r.SpawnMinDistance, p.SpawnMinDistance)
	if p.WinCondition != nil {
		r.WinCondition = *p.WinCondition
	}
	return r
}
