package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hexduel/config"
	"hexduel/server"
)

// HexDuel 入口：读取配置，启动 HTTP + WebSocket 服务
func main() {
	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "config.json", "config file path, created with defaults when missing")
	flag.StringVar(&addr, "addr", "", "override listen address, e.g. :8080")
	flag.Parse()

	if err := run(cfgPath, addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath, addr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	// 使用第三方 zap 日志库写入滚动日志文件
	log, err := server.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer server.SyncLogger(log)

	rooms := server.NewRoomManager(server.RoomOptions{
		Rules:       cfg.Rules,
		IdleTimeout: time.Duration(cfg.IdleTimeout),
	}, log)
	defer rooms.Shutdown()

	admin := server.NewAdmin(rooms, log)
	mux := http.NewServeMux()
	mux.Handle("/ws", server.NewWSHandler(rooms, server.WSOptions{
		ActionRate:  cfg.ActionRate,
		ActionBurst: cfg.ActionBurst,
		SendQueue:   cfg.SendQueue,
	}, log))
	// 管理与监控接口
	mux.HandleFunc("/admin/rules", admin.HandleRules)
	mux.HandleFunc("/metrics", admin.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("HexDuel listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	// 优雅退出（Ctrl+C）
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
