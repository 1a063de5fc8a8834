package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the only persisted config file schema.
type Config struct {
	Display    Display    `toml:"display"`
	Layout     Layout     `toml:"layout"`
	Transcript Transcript `toml:"transcript"`
	Exchange   Exchange   `toml:"exchange"`
	Transport  Transport  `toml:"transport"`
	Speech     Speech     `toml:"speech"`
	Peer       Peer       `toml:"peer"`
	Haptic     Haptic     `toml:"haptic"`
	Log        Log        `toml:"log"`
	Source     string     `toml:"-"`
}

// Display 描述模拟手表屏幕的尺寸（终端单元格）。
type Display struct {
	Width               int `toml:"width"`
	Height              int `toml:"height"`
	AnimationHeight     int `toml:"animation_height"`
	AnimationIntervalMS int `toml:"animation_interval_ms"`
	AnimationDelayMS    int `toml:"animation_delay_ms"`
}

// Layout 为气泡布局参数。
type Layout struct {
	PaddingH int `toml:"padding_h"`
	PaddingV int `toml:"padding_v"`
	Gap      int `toml:"gap"`
}

type Transcript struct {
	MaxMessages      int `toml:"max_messages"`
	MaxMessageLength int `toml:"max_message_length"`
}

type Exchange struct {
	ReplyTimeoutSecs    int  `toml:"reply_timeout_secs"`
	SurfaceSpeechErrors bool `toml:"surface_speech_errors"`
}

// Transport 选择手表与手机之间的链路。
type Transport struct {
	Kind          string  `toml:"kind"`
	RedisURL      string  `toml:"redis_url"`
	ChannelPrefix string  `toml:"channel_prefix"`
	DropRate      float64 `toml:"drop_rate"`
	LatencyMS     int     `toml:"latency_ms"`
}

// Speech 配置 whisper 听写；WhisperBin 为空时使用键入式听写。
type Speech struct {
	WhisperBin string `toml:"whisper_bin"`
	ModelPath  string `toml:"model_path"`
	RecordSecs int    `toml:"record_secs"`
	TempDir    string `toml:"temp_dir"`
}

// Peer 配置手机端应答器。
type Peer struct {
	Responder string `toml:"responder"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	System    string `toml:"system"`
}

type Haptic struct {
	Enabled bool `toml:"enabled"`
	Millis  int  `toml:"millis"`
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

const (
	TransportLoopback = "loopback"
	TransportRedis    = "redis"

	ResponderEcho      = "echo"
	ResponderOpenAI    = "openai"
	ResponderAnthropic = "anthropic"
)

func Default() Config {
	return Config{
		Display: Display{
			Width:               36,
			Height:              24,
			AnimationHeight:     3,
			AnimationIntervalMS: 1250,
			AnimationDelayMS:    250,
		},
		Layout: Layout{PaddingH: 1, PaddingV: 1, Gap: 1},
		Transcript: Transcript{
			MaxMessages:      50,
			MaxMessageLength: 512,
		},
		Exchange: Exchange{
			ReplyTimeoutSecs:    30,
			SurfaceSpeechErrors: true,
		},
		Transport: Transport{
			Kind:          TransportLoopback,
			ChannelPrefix: "flow",
			LatencyMS:     150,
		},
		Speech: Speech{RecordSecs: 5},
		Peer:   Peer{Responder: ResponderEcho},
		Haptic: Haptic{Millis: 120},
		Log:    Log{Level: "info"},
	}
}

// AnimationInterval 返回动画帧间隔。
func (d Display) AnimationInterval() time.Duration {
	return time.Duration(d.AnimationIntervalMS) * time.Millisecond
}

// AnimationDelay 返回首帧延迟。
func (d Display) AnimationDelay() time.Duration {
	return time.Duration(d.AnimationDelayMS) * time.Millisecond
}

// ReplyTimeout 为 0 表示不设超时。
func (e Exchange) ReplyTimeout() time.Duration {
	return time.Duration(e.ReplyTimeoutSecs) * time.Second
}

func (t Transport) Latency() time.Duration {
	return time.Duration(t.LatencyMS) * time.Millisecond
}

func (s Speech) RecordDuration() time.Duration {
	return time.Duration(s.RecordSecs) * time.Second
}

func (h Haptic) Duration() time.Duration {
	return time.Duration(h.Millis) * time.Millisecond
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flow", "config.toml")
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ApplyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv 环境变量优先于配置文件；覆盖 peer.responder 后需再次调用。
func ApplyEnv(cfg *Config) {
	if env := strings.TrimSpace(os.Getenv("FLOW_REDIS_URL")); env != "" {
		cfg.Transport.RedisURL = env
	}
	switch cfg.Peer.Responder {
	case ResponderOpenAI:
		if env := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); env != "" {
			cfg.Peer.BaseURL = env
		}
		if env := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); env != "" {
			cfg.Peer.APIKey = env
		}
	case ResponderAnthropic:
		if env := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); env != "" {
			cfg.Peer.BaseURL = env
		}
		if env := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); env != "" {
			cfg.Peer.APIKey = env
		}
	}
}

// Validate rejects values the layout and exchange code cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Display.Width < 4 {
		errs = append(errs, fmt.Errorf("display.width must be >= 4, got %d", c.Display.Width))
	}
	if c.Display.AnimationHeight < 0 || c.Display.Height-c.Display.AnimationHeight < 1 {
		errs = append(errs, fmt.Errorf("display.height %d leaves no room for the transcript", c.Display.Height))
	}
	if c.Display.AnimationIntervalMS <= 0 {
		errs = append(errs, errors.New("display.animation_interval_ms must be positive"))
	}
	if c.Layout.PaddingH < 0 || c.Layout.PaddingV < 0 || c.Layout.Gap < 0 {
		errs = append(errs, errors.New("layout values must not be negative"))
	}
	if c.Transcript.MaxMessages < 1 {
		errs = append(errs, errors.New("transcript.max_messages must be >= 1"))
	}
	if c.Transcript.MaxMessageLength < 2 {
		errs = append(errs, errors.New("transcript.max_message_length must be >= 2"))
	}
	if c.Exchange.ReplyTimeoutSecs < 0 {
		errs = append(errs, errors.New("exchange.reply_timeout_secs must not be negative"))
	}
	switch c.Transport.Kind {
	case TransportLoopback:
		if c.Transport.DropRate < 0 || c.Transport.DropRate > 1 {
			errs = append(errs, fmt.Errorf("transport.drop_rate must be within [0,1], got %v", c.Transport.DropRate))
		}
	case TransportRedis:
		if strings.TrimSpace(c.Transport.RedisURL) == "" {
			errs = append(errs, errors.New("transport.redis_url is required for the redis transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport.kind %q", c.Transport.Kind))
	}
	switch c.Peer.Responder {
	case ResponderEcho, ResponderOpenAI, ResponderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown peer.responder %q", c.Peer.Responder))
	}
	return errors.Join(errs...)
}
