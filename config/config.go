package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"hexduel/game"
)

// Duration 以字符串形式（如 "10m"）读写 JSON 的时长
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LogConfig 日志文件滚动策略
type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Level      string `json:"level"`
	Console    bool   `json:"console"` // 同时输出到 stderr
}

// Config 服务配置
type Config struct {
	Addr        string     `json:"addr"`
	Log         LogConfig  `json:"log"`
	Rules       game.Rules `json:"rules"`
	IdleTimeout Duration   `json:"idleTimeout"` // 无人连接的房间超时回收
	ActionRate  float64    `json:"actionRate"`  // 每连接每秒允许的入站消息数
	ActionBurst int        `json:"actionBurst"`
	SendQueue   int        `json:"sendQueue"` // 每连接发送队列长度
}

func Default() *Config {
	return &Config{
		Addr: ":8080",
		Log: LogConfig{
			File:       "app.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Level:      "debug",
			Console:    true,
		},
		Rules:       game.DefaultRules(),
		IdleTimeout: Duration(10 * time.Minute),
		ActionRate:  10,
		ActionBurst: 5,
		SendQueue:   64,
	}
}

// Load 读取配置文件；文件不存在时写出默认配置
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save 以缩进 JSON 写出配置
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is empty")
	}
	if c.ActionRate <= 0 || c.ActionBurst < 1 {
		return fmt.Errorf("invalid rate limit %.2f/%d", c.ActionRate, c.ActionBurst)
	}
	if c.SendQueue < 1 {
		return fmt.Errorf("sendQueue %d < 1", c.SendQueue)
	}
	return c.Rules.Validate()
}
