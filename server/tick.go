package server

import "time"

// Start 启动房间协程（只启动一次）
func (r *Room) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	go r.Run()
}

// Run 房间主循环：逐条处理命令，定时检查是否闲置
func (r *Room) Run() {
	ticker := time.NewTicker(r.housekeeping)
	defer ticker.Stop()
	for {
		select {
		case <-r.quit:
			r.closeMembers()
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-ticker.C:
			r.reapIfIdle()
		}
	}
}

// Stop 结束房间协程并关闭所有成员连接
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
}

// reapIfIdle 无人在线超过 IdleTimeout 时通知管理器回收
func (r *Room) reapIfIdle() bool {
	if r.idleTimeout <= 0 || len(r.members) > 0 {
		return false
	}
	if r.now().Sub(r.lastActive) < r.idleTimeout {
		return false
	}
	r.log.Infow("reaping idle room", "idle", r.now().Sub(r.lastActive))
	if r.onIdle != nil {
		r.onIdle(r)
	}
	r.Stop()
	return true
}

func (r *Room) closeMembers() {
	for _, m := range r.members {
		m.conn.Close()
	}
	r.members = nil
	r.nMembers.Store(0)
}
