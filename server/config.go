package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

// Config 进程级配置，可由 TOML 文件覆盖默认值
type Config struct {
	Server ServerConfig `toml:"server"`
	Match  MatchConfig  `toml:"match"`
	Tuning Tuning       `toml:"tuning"`
}

type ServerConfig struct {
	LogFile   string `toml:"log_file"`
	Debug     bool   `toml:"debug"`
	AdminAddr string `toml:"admin_addr"` // 为空则不启动管理/观战 HTTP
}

// MatchConfig 比赛计时（秒）
type MatchConfig struct {
	GameDuration       int64 `toml:"game_duration"`
	TransitionDuration int64 `toml:"transition_duration"`
	ScoreExtension     int64 `toml:"score_extension"`
}

// Tuning 可在运行期通过 /admin/config 热更新的参数
type Tuning struct {
	QueueMin             int   `toml:"queue_min" json:"queueMin"`
	QueueMax             int   `toml:"queue_max" json:"queueMax"`
	SessionTimeoutMs     int64 `toml:"session_timeout_ms" json:"sessionTimeoutMs"`
	JoinReplyCopies      int   `toml:"join_reply_copies" json:"joinReplyCopies"`
	RejectShortDatagrams bool  `toml:"reject_short_datagrams" json:"rejectShortDatagrams"`
	SpectatorEvery       int   `toml:"spectator_every" json:"spectatorEvery"` // 每 N 帧推送一次观战快照
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{LogFile: "carball.log"},
		Match: MatchConfig{
			GameDuration:       300,
			TransitionDuration: 5,
			ScoreExtension:     5,
		},
		Tuning: DefaultTuning(),
	}
}

func DefaultTuning() Tuning {
	return Tuning{
		QueueMin:         1,
		QueueMax:         10,
		SessionTimeoutMs: 5000,
		JoinReplyCopies:  1,
		SpectatorEvery:   6,
	}
}

// Validate 检查参数是否会破坏调节器或会话不变量
func (t Tuning) Validate() error {
	switch {
	case t.QueueMin < 1:
		return errors.New("queueMin must be >= 1")
	case t.QueueMax < t.QueueMin:
		return errors.New("queueMax must be >= queueMin")
	case t.SessionTimeoutMs <= 0:
		return errors.New("sessionTimeoutMs must be > 0")
	case t.JoinReplyCopies < 1:
		return errors.New("joinReplyCopies must be >= 1")
	case t.SpectatorEvery < 1:
		return errors.New("spectatorEvery must be >= 1")
	}
	return nil
}

func (t Tuning) SessionTimeout() time.Duration {
	return time.Duration(t.SessionTimeoutMs) * time.Millisecond
}

func (t Tuning) Regulator() Regulator {
	return Regulator{Min: t.QueueMin, Max: t.QueueMax}
}

// SaveDefault 写出默认配置文件；文件已存在时返回错误
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("config file already exists")
	}
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating config file: %w", err)
	}
	return nil
}

// LoadConfig 读取 TOML 配置，缺省字段保留默认值
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}
