package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
// Keys use the TOML section path, e.g. "transport.kind=redis".
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "display.width":
			setInt(&cfg.Display.Width, val)
		case "display.height":
			setInt(&cfg.Display.Height, val)
		case "display.animation_interval_ms":
			setInt(&cfg.Display.AnimationIntervalMS, val)
		case "layout.padding_h":
			setInt(&cfg.Layout.PaddingH, val)
		case "layout.padding_v":
			setInt(&cfg.Layout.PaddingV, val)
		case "layout.gap":
			setInt(&cfg.Layout.Gap, val)
		case "transcript.max_messages":
			setInt(&cfg.Transcript.MaxMessages, val)
		case "transcript.max_message_length":
			setInt(&cfg.Transcript.MaxMessageLength, val)
		case "exchange.reply_timeout_secs":
			setInt(&cfg.Exchange.ReplyTimeoutSecs, val)
		case "exchange.surface_speech_errors":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Exchange.SurfaceSpeechErrors = b
			}
		case "transport.kind":
			cfg.Transport.Kind = val
		case "transport.redis_url":
			cfg.Transport.RedisURL = val
		case "transport.channel_prefix":
			cfg.Transport.ChannelPrefix = val
		case "transport.drop_rate":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				cfg.Transport.DropRate = f
			}
		case "transport.latency_ms":
			setInt(&cfg.Transport.LatencyMS, val)
		case "speech.whisper_bin":
			cfg.Speech.WhisperBin = val
		case "speech.model_path":
			cfg.Speech.ModelPath = val
		case "speech.record_secs":
			setInt(&cfg.Speech.RecordSecs, val)
		case "peer.responder":
			cfg.Peer.Responder = val
		case "peer.model":
			cfg.Peer.Model = val
		case "peer.base_url":
			cfg.Peer.BaseURL = val
		case "peer.api_key":
			cfg.Peer.APIKey = val
		case "haptic.enabled":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Haptic.Enabled = b
			}
		case "log.level":
			cfg.Log.Level = val
		case "log.path":
			cfg.Log.Path = val
		}
	}
	return cfg
}

func setInt(dst *int, val string) {
	if n, err := strconv.Atoi(val); err == nil {
		*dst = n
	}
}
