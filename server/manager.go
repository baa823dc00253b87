package server

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  RoomOptions
	log   *zap.SugaredLogger
}

// RoomInfo 房间概要，用于监控输出
type RoomInfo struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

func NewRoomManager(opts RoomOptions, log *zap.SugaredLogger) *RoomManager {
	opts.Rand = nil // *rand.Rand 不能跨房间协程共享
	return &RoomManager{
		rooms: make(map[string]*Room),
		opts:  opts,
		log:   log,
	}
}

// GetOrCreateRoom 获取或创建房间，并确保房间协程已启动
func (m *RoomManager) GetOrCreateRoom(id string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	r, err := NewRoom(id, m.opts, m.log)
	if err != nil {
		return nil, err
	}
	r.onIdle = m.removeRoom
	m.rooms[id] = r
	r.Start()
	m.log.Infow("room created", "room", id)
	return r, nil
}

// Lookup 只查找，不创建
func (m *RoomManager) Lookup(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Submit 将行动投递到指定房间；房间不存在时静默丢弃
func (m *RoomManager) Submit(roomID string, a Action) bool {
	r, ok := m.Lookup(roomID)
	if !ok {
		return false
	}
	return r.OnAction(a)
}

func (m *RoomManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// List 按 ID 排序的房间概要
func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Members: r.Members()})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// removeRoom 房间闲置回收时回调；只删除同一实例
func (m *RoomManager) removeRoom(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.ID]; ok && cur == r {
		delete(m.rooms, r.ID)
		m.log.Infow("room removed", "room", r.ID)
	}
}

// Shutdown 停止所有房间
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Stop()
		delete(m.rooms, id)
	}
}
