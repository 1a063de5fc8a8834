// Package haptic stands in for the watch's vibration motor: a short low buzz
// played through the speakers when a reply arrives.
package haptic

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"flow-cli/internal/logger"
)

const (
	SampleRate   = 22050
	ChannelCount = 1
	buzzHz       = 150.0
)

// Buzzer 在回复到达时发出提示。
type Buzzer interface {
	Buzz()
}

// Noop 不做任何事，未启用或无音频设备时使用。
type Noop struct{}

func (Noop) Buzz() {}

// Oto plays the pulse through the system audio device.
type Oto struct {
	ctx   *oto.Context
	pulse []byte
	log   *logger.LogEntry
	mu    sync.Mutex
	busy  bool
}

// NewOto 初始化音频上下文；设备不可用时返回错误，调用方应退回 Noop。
func NewOto(d time.Duration) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan
	log := logger.Named("haptic")
	log.Debugf("audio context ready (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Oto{ctx: ctx, pulse: Pulse(d), log: log}, nil
}

// Buzz 异步播放；上一次尚未结束时忽略本次。
func (o *Oto) Buzz() {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return
	}
	o.busy = true
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			o.busy = false
			o.mu.Unlock()
		}()
		player := o.ctx.NewPlayer(bytes.NewReader(o.pulse))
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		if err := player.Close(); err != nil {
			o.log.WithError(err).Warn("close player")
		}
	}()
}

// Pulse synthesizes a mono 16-bit PCM buzz of duration d with a short fade at
// both ends so it does not click.
func Pulse(d time.Duration) []byte {
	n := int(d.Seconds() * SampleRate)
	if n <= 0 {
		return nil
	}
	fade := n / 10
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		amp := 0.6
		switch {
		case fade > 0 && i < fade:
			amp *= float64(i) / float64(fade)
		case fade > 0 && i >= n-fade:
			amp *= float64(n-1-i) / float64(fade)
		}
		v := amp * math.Sin(2*math.Pi*buzzHz*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return buf
}
