package server

//go:generate go tool mockgen -destination=./mocks/conn_mock.go -package=mocks . Conn

// PlayerID 表示玩家唯一标识
type PlayerID string

// Conn 房间向成员推送消息的发送端
// Enqueue 不阻塞，队列已满时返回 false
type Conn interface {
	Enqueue(b []byte) bool
	Close()
}

// member 房间内已入座的连接
type member struct {
	id   PlayerID
	conn Conn
}
