package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type animTickMsg struct{}

// PendingAnimator advances the wave while an exchange is pending. At most one
// tick is ever in flight: Start only arms a new loop when none is running, and
// each tick decides whether to rearm from the pending flag at fire time.
type PendingAnimator struct {
	interval time.Duration
	delay    time.Duration

	pending   bool
	running   bool
	armNeeded bool
	frame     int
}

func NewPendingAnimator(interval, firstDelay time.Duration) *PendingAnimator {
	if interval <= 0 {
		interval = 1250 * time.Millisecond
	}
	if firstDelay <= 0 {
		firstDelay = interval
	}
	return &PendingAnimator{interval: interval, delay: firstDelay}
}

// Start 标记等待中；若循环未运行则在下一次 Arm 时启动。
func (a *PendingAnimator) Start() {
	a.pending = true
	if !a.running {
		a.running = true
		a.armNeeded = true
	}
}

// Stop 清除等待标记；进行中的 tick 触发时不再续期。
func (a *PendingAnimator) Stop() {
	a.pending = false
}

// Arm 返回首个 tick 命令，每次 Start 最多一次。
func (a *PendingAnimator) Arm() tea.Cmd {
	if !a.armNeeded {
		return nil
	}
	a.armNeeded = false
	return tick(a.delay)
}

// OnTick 推进一帧并续期；已停止时结束循环。
func (a *PendingAnimator) OnTick() tea.Cmd {
	if !a.pending {
		a.running = false
		return nil
	}
	a.frame++
	return tick(a.interval)
}

// Frame 返回当前帧；空闲时为静止帧 0。
func (a *PendingAnimator) Frame() int {
	if !a.pending {
		return 0
	}
	return a.frame
}

func (a *PendingAnimator) Pending() bool { return a.pending }

// Running 报告是否有 tick 在途。
func (a *PendingAnimator) Running() bool { return a.running }

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return animTickMsg{} })
}
