package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hexduel/game"
)

func newTestServer(t *testing.T) (*httptest.Server, *RoomManager) {
	t.Helper()
	// 连接协程可能在测试结束后才退出，这里不用 zaptest
	log := zap.NewNop().Sugar()
	rm := NewRoomManager(RoomOptions{Rules: game.DefaultRules(), IdleTimeout: time.Minute}, log)
	admin := NewAdmin(rm, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", NewWSHandler(rm, WSOptions{ActionRate: 50, ActionBurst: 10, SendQueue: 16}, log))
	mux.HandleFunc("/admin/rules", admin.HandleRules)
	mux.HandleFunc("/metrics", admin.HandleMetrics)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		rm.Shutdown()
	})
	return srv, rm
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sendMsg(t *testing.T, c *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := Encode(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil 跳过其他消息，直到收到满足条件的指定类型消息
func readUntil(t *testing.T, c *websocket.Conn, typ string, ok func(Envelope) bool) Envelope {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, b, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		env, err := DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("bad envelope %s: %v", b, err)
		}
		if env.Type == typ && (ok == nil || ok(env)) {
			return env
		}
	}
}

func stateWhere(t *testing.T, pred func(StatePayload) bool) func(Envelope) bool {
	return func(env Envelope) bool {
		st, err := DecodePayload[StatePayload](env)
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return pred(st)
	}
}

func TestWebSocketMatchFlow(t *testing.T) {
	srv, rm := newTestServer(t)

	alice := dial(t, srv, "room=duel&player=alice")
	sendMsg(t, alice, MsgJoin, JoinMessage{})
	j, _ := DecodePayload[JoinedPayload](readUntil(t, alice, MsgJoined, nil))
	if j.Role != game.RoleAstronaut || j.PlayerID != "alice" {
		t.Fatalf("alice joined = %+v", j)
	}

	bob := dial(t, srv, "player=bob")
	sendMsg(t, bob, MsgJoin, JoinMessage{Room: "duel"})
	j, _ = DecodePayload[JoinedPayload](readUntil(t, bob, MsgJoined, nil))
	if j.Role != game.RoleAlien || j.Room != "duel" {
		t.Fatalf("bob joined = %+v", j)
	}

	started := stateWhere(t, func(st StatePayload) bool { return st.Phase == game.PhaseInProgress })
	targets := map[*websocket.Conn]game.Hex{}
	for _, c := range []*websocket.Conn{alice, bob} {
		readUntil(t, c, MsgGameStart, nil)
		st, _ := DecodePayload[StatePayload](readUntil(t, c, MsgMatchState, started))
		if st.You == nil || st.You.Position == nil {
			t.Fatalf("missing own position: %+v", st)
		}
		if st.Opponent == nil || st.Opponent.Position != nil {
			t.Fatalf("opponent position leaked: %+v", st.Opponent)
		}
		targets[c] = stepToward(*st.You.Position)
	}

	for c, target := range targets {
		sendMsg(t, c, MsgAction, ActionMessage{Target: &target})
	}
	for c, target := range targets {
		env := readUntil(t, c, MsgMatchState, stateWhere(t, func(st StatePayload) bool { return st.Round == 1 }))
		st, _ := DecodePayload[StatePayload](env)
		if *st.You.Position != target {
			t.Fatalf("position = %v, want %v", *st.You.Position, target)
		}
	}

	room, ok := rm.Lookup("duel")
	if !ok || room.Members() != 2 {
		t.Fatalf("room duel missing or wrong members")
	}

	// 第三个连接只收到 roomFull，随后被关闭
	carol := dial(t, srv, "room=duel&player=carol")
	sendMsg(t, carol, MsgJoin, nil)
	full, _ := DecodePayload[RoomFullPayload](readUntil(t, carol, MsgRoomFull, nil))
	if full.Room != "duel" {
		t.Fatalf("roomFull = %+v", full)
	}
	if _, _, err := carol.ReadMessage(); err == nil {
		t.Fatalf("refused connection should be closed")
	}

	resp, err := http.Get(srv.URL + "/metrics?room=duel")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Members int                `json:"members"`
		Metrics map[string]float64 `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Members != 2 || body.Metrics["rounds_resolved"] != 1 || body.Metrics["actions_accepted"] != 2 {
		t.Fatalf("metrics = %+v", body)
	}

	post, err := http.Post(srv.URL+"/admin/rules?room=duel", "application/json", strings.NewReader(`{"radius":5}`))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusConflict {
		t.Fatalf("rules update after start = %d, want 409", post.StatusCode)
	}
}

func TestWebSocketGeneratesPlayerID(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv, "room=solo")
	sendMsg(t, c, MsgJoin, nil)
	j, _ := DecodePayload[JoinedPayload](readUntil(t, c, MsgJoined, nil))
	if _, err := uuid.Parse(j.PlayerID); err != nil {
		t.Fatalf("playerId %q is not a uuid: %v", j.PlayerID, err)
	}
}

func TestAdminRulesBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/admin/rules?room=lobby", "application/json",
		strings.NewReader(`{"radius":4,"winCondition":"cards_on_origin"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/admin/rules?room=lobby")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rules game.Rules
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		t.Fatal(err)
	}
	if rules.Radius != 4 || rules.WinCondition != game.WinByCardsOnOrigin || rules.WinCards != 3 {
		t.Fatalf("rules = %+v", rules)
	}

	bad, err := http.Post(srv.URL+"/admin/rules?room=lobby", "application/json", strings.NewReader(`{"minRadius":9}`))
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid rules status = %d", bad.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/metrics?room=nowhere")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("metrics for unknown room = %d", missing.StatusCode)
	}
}
