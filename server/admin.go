package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"hexduel/game"
)

// Admin 管理与监控接口
type Admin struct {
	rooms *RoomManager
	log   *zap.SugaredLogger
}

func NewAdmin(rooms *RoomManager, log *zap.SugaredLogger) *Admin {
	return &Admin{rooms: rooms, log: log}
}

func roomParam(r *http.Request) string {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	return roomID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleRules 提供房间规则的读取与更新（仅开局前可改）
// GET /admin/rules?room=room-1  返回当前规则
// POST /admin/rules?room=room-1 以 JSON 载荷更新部分字段
func (a *Admin) HandleRules(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room, err := a.rooms.GetOrCreateRoom(roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	switch r.Method {
	case http.MethodGet:
		cur, err := room.Rules(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	case http.MethodPost:
		var patch game.RulesPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		// 合并在房间协程内完成，并发更新互不覆盖
		next, err := room.UpdateRules(r.Context(), patch)
		switch {
		case errors.Is(err, game.ErrRulesLocked):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case errors.Is(err, game.ErrInvalidRules):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		a.log.Infow("rules updated via admin", "room", roomID, "rules", next)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "rules": next})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标；不带 room 参数时列出所有房间
// GET /metrics?room=room-1
func (a *Admin) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"rooms": a.rooms.List(),
			"count": a.rooms.Len(),
		})
		return
	}
	room, ok := a.rooms.Lookup(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"members": room.Members(),
		"rooms":   a.rooms.Len(),
		"metrics": room.Metrics().Snapshot(),
	})
}
