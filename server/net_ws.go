package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"hexduel/game"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, queue int) *ClientConn {
	if queue <= 0 {
		queue = 64
	}
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close 通知写协程发送完已排队的消息后关闭连接，可重复调用
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() error {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-c.done:
			c.flush()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		}
	}
}

func (c *ClientConn) write(mt int, b []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(mt, b)
}

// flush 写出关闭前已排队的消息（如 roomFull）
func (c *ClientConn) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// WSOptions 连接层参数
type WSOptions struct {
	DefaultRoom string
	ActionRate  float64 // 每秒允许的入站消息数
	ActionBurst int
	SendQueue   int
}

// WSHandler WebSocket 接入：/ws?room=room-1&player=alice
type WSHandler struct {
	rooms    *RoomManager
	opts     WSOptions
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(rooms *RoomManager, opts WSOptions, log *zap.SugaredLogger) *WSHandler {
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = "room-1"
	}
	return &WSHandler{
		rooms: rooms,
		opts:  opts,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 演示环境：允许所有来源（生产环境需严格限制）
				return true
			},
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = h.opts.DefaultRoom
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade error", "err", err)
		return
	}

	s := &session{
		h:       h,
		id:      PlayerID(playerID),
		roomID:  roomID,
		conn:    NewClientConn(ws, h.opts.SendQueue),
		limiter: rate.NewLimiter(rate.Limit(h.opts.ActionRate), h.opts.ActionBurst),
		log:     h.log.With("player", playerID),
	}
	s.log.Debugw("connected", "remote", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(s.conn.writePump)
	g.Go(func() error { return s.readPump(ctx) })
	if err := g.Wait(); err != nil {
		s.log.Debugw("connection closed", "err", err)
	}
}

// session 单条连接的读侧状态
type session struct {
	h       *WSHandler
	id      PlayerID
	roomID  string
	room    *Room
	conn    *ClientConn
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

var errJoinRefused = errors.New("join refused")

// readPump 读取客户端消息，转换为房间命令
func (s *session) readPump(ctx context.Context) error {
	defer s.conn.Close()
	// 读泵退出时，通知房间在房间协程中移除该玩家
	defer func() {
		if s.room != nil {
			s.room.RequestLeave(s.id)
		}
	}()

	ws := s.conn.ws
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}
		if !s.limiter.Allow() {
			if s.room != nil {
				s.room.Metrics().IncRateLimited()
			}
			continue
		}
		env, err := DecodeEnvelope(payload)
		if err != nil {
			s.log.Debugw("malformed message", "err", err)
			continue
		}
		switch env.Type {
		case MsgJoin:
			if err := s.join(ctx, env); err != nil {
				if errors.Is(err, errJoinRefused) {
					return nil
				}
				return err
			}
		case MsgAction:
			s.action(env)
		default:
			s.log.Debugw("unknown message type", "type", env.Type)
		}
	}
}

func (s *session) join(ctx context.Context, env Envelope) error {
	if s.room != nil {
		return nil
	}
	msg, err := DecodePayload[JoinMessage](env)
	if err != nil {
		s.log.Debugw("malformed join", "err", err)
		return nil
	}
	roomID := s.roomID
	if msg.Room != "" {
		roomID = msg.Room
	}

	// 房间可能恰好被回收，重试一次会创建新房间
	for attempt := 0; attempt < 2; attempt++ {
		room, err := s.h.rooms.GetOrCreateRoom(roomID)
		if err != nil {
			return err
		}
		_, err = room.Join(ctx, s.id, s.conn)
		switch {
		case err == nil:
			s.room = room
			return nil
		case errors.Is(err, ErrRoomClosed):
			continue
		case errors.Is(err, game.ErrRoomFull), errors.Is(err, game.ErrAlreadyJoined):
			return errJoinRefused
		default:
			return err
		}
	}
	return ErrRoomClosed
}

func (s *session) action(env Envelope) {
	if s.room == nil {
		return
	}
	msg, err := DecodePayload[ActionMessage](env)
	if err != nil || msg.Target == nil {
		s.room.Metrics().IncDropped()
		s.log.Debugw("malformed action", "err", err)
		return
	}
	s.room.OnAction(Action{PlayerID: s.id, Target: *msg.Target, Shoot: msg.Shoot})
}
