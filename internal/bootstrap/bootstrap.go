// Package bootstrap turns a loaded config into the runtime pieces both binaries
// need: the phone responder, the watch/phone link, dictation and haptics.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flow-cli/internal/config"
	"flow-cli/internal/haptic"
	"flow-cli/internal/logger"
	"flow-cli/internal/peer"
	anthropicpeer "flow-cli/internal/peer/anthropic"
	openaipeer "flow-cli/internal/peer/openai"
	"flow-cli/internal/speech"
	"flow-cli/internal/transport"
)

var log = logger.Named("bootstrap")

// NewResponder 按 peer.responder 构造应答器。
func NewResponder(p config.Peer) (peer.Responder, error) {
	switch p.Responder {
	case "", config.ResponderEcho:
		return peer.Echo{}, nil
	case config.ResponderOpenAI:
		return openaipeer.New(openaipeer.Options{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			System:  p.System,
		})
	case config.ResponderAnthropic:
		return anthropicpeer.New(anthropicpeer.Options{
			Token:   p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			System:  p.System,
		})
	default:
		return nil, fmt.Errorf("unknown responder %q", p.Responder)
	}
}

// WatchLink is the watch end of the link plus whatever runs behind it.
type WatchLink struct {
	transport.Link
	stop func()
}

// Close 关闭链路并等待进程内手机端退出。
func (w *WatchLink) Close() error {
	err := w.Link.Close()
	if w.stop != nil {
		w.stop()
	}
	return err
}

// OpenWatchLink 返回手表端链路。loopback 模式会在进程内启动手机端。
func OpenWatchLink(ctx context.Context, cfg config.Config, rlog logger.ResponderLogger) (*WatchLink, error) {
	switch cfg.Transport.Kind {
	case config.TransportRedis:
		link, err := transport.DialRedis(ctx, redisOptions(cfg, transport.SideWatch))
		if err != nil {
			return nil, err
		}
		return &WatchLink{Link: link}, nil
	case "", config.TransportLoopback:
		responder, err := NewResponder(cfg.Peer)
		if err != nil {
			return nil, fmt.Errorf("build responder: %w", err)
		}
		watch, phone := transport.NewPipe(transport.PipeOptions{
			DropRate: cfg.Transport.DropRate,
			Latency:  cfg.Transport.Latency(),
		})
		runCtx, cancel := context.WithCancel(ctx)
		companion := peer.NewCompanion(phone, responder, peer.WithResponderLog(rlog))
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := companion.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("phone companion stopped: %v", err)
			}
		}()
		log.WithField("responder", responder.Name()).Info("loopback link ready")
		return &WatchLink{Link: watch, stop: func() {
			cancel()
			_ = phone.Close()
			<-done
		}}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport.Kind)
	}
}

// OpenPhoneLink 返回独立手机进程使用的 Redis 链路。
func OpenPhoneLink(ctx context.Context, cfg config.Config) (*transport.RedisLink, error) {
	if cfg.Transport.Kind != config.TransportRedis {
		return nil, fmt.Errorf("phone process needs transport.kind = %q, got %q", config.TransportRedis, cfg.Transport.Kind)
	}
	return transport.DialRedis(ctx, redisOptions(cfg, transport.SidePhone))
}

func redisOptions(cfg config.Config, side transport.Side) transport.RedisOptions {
	return transport.RedisOptions{
		URL:     cfg.Transport.RedisURL,
		Prefix:  cfg.Transport.ChannelPrefix,
		Side:    side,
		Timeout: 5 * time.Second,
	}
}

// NewSpeech 未配置 whisper 时返回 nil，界面改用键入式听写。
func NewSpeech(s config.Speech) speech.Service {
	if s.WhisperBin == "" {
		return nil
	}
	return speech.NewWhisper(s.WhisperBin, s.ModelPath,
		speech.WithRecordDuration(s.RecordDuration()),
		speech.WithTempDir(s.TempDir),
	)
}

// NewBuzzer 音频设备不可用时退回 Noop。
func NewBuzzer(h config.Haptic) haptic.Buzzer {
	if !h.Enabled {
		return haptic.Noop{}
	}
	b, err := haptic.NewOto(h.Duration())
	if err != nil {
		log.Warnf("haptic disabled: %v", err)
		return haptic.Noop{}
	}
	return b
}
