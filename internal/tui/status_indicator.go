package tui

import (
	"fmt"
	"time"

	"flow-cli/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StatusIndicatorState 枚举了状态指示器可显示的所有状态。
type StatusIndicatorState int

const (
	// StatusIdle 表示空闲，只显示提示。
	StatusIdle StatusIndicatorState = iota
	// StatusListening 表示听写进行中，计时器持续累加。
	StatusListening
	// StatusWaiting 表示等待手机回复，计时器持续累加。
	StatusWaiting
)

func (s StatusIndicatorState) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusListening:
		return "listening"
	case StatusWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

func (s StatusIndicatorState) defaultHeader() string {
	switch s {
	case StatusListening:
		return "Listening"
	case StatusWaiting:
		return "Waiting for phone"
	default:
		return "Press enter to talk"
	}
}

func (s StatusIndicatorState) tracksElapsed() bool {
	return s == StatusListening || s == StatusWaiting
}

// StatusIndicatorWidget 渲染状态行：标记 + 标题 + 计时/排队数。
type StatusIndicatorWidget struct {
	state  StatusIndicatorState
	header string
	queued int

	elapsedRunning time.Duration
	lastResumeAt   time.Time
	paused         bool

	clock func() time.Time
}

// NewStatusIndicatorWidget 构造空闲状态的指示器。
func NewStatusIndicatorWidget(clock func() time.Time) *StatusIndicatorWidget {
	if clock == nil {
		clock = time.Now
	}
	return &StatusIndicatorWidget{
		state:        StatusIdle,
		header:       StatusIdle.defaultHeader(),
		paused:       true,
		clock:        clock,
		lastResumeAt: clock(),
	}
}

// SetState 切换状态；进入计时状态时从零开始计时。
func (w *StatusIndicatorWidget) SetState(state StatusIndicatorState) {
	if w == nil || state == w.state {
		return
	}
	now := w.clock()
	if state.tracksElapsed() {
		w.elapsedRunning = 0
		w.lastResumeAt = now
		w.paused = false
	} else {
		w.pauseTimerAt(now)
	}
	w.state = state
	w.header = state.defaultHeader()
}

func (w *StatusIndicatorWidget) State() StatusIndicatorState {
	return w.state
}

// SetQueued 更新排队中的转写数量。
func (w *StatusIndicatorWidget) SetQueued(n int) {
	w.queued = n
}

// ElapsedSeconds 返回累计秒数。
func (w *StatusIndicatorWidget) ElapsedSeconds() uint64 {
	if w == nil {
		return 0
	}
	return uint64(w.elapsedDurationAt(w.clock()).Seconds())
}

// Render 绘制单行状态，超出宽度时截断。
func (w *StatusIndicatorWidget) Render(width int) render.Line {
	if w == nil || width <= 0 {
		return render.Line{}
	}
	spans := []render.Span{{Text: w.marker()}, {Text: " "}, {Text: w.header}}
	if w.state.tracksElapsed() {
		spans = append(spans, render.Span{Text: " "}, render.Span{
			Text:  fmt.Sprintf("(%s)", fmtElapsedCompact(w.ElapsedSeconds())),
			Style: lipgloss.NewStyle().Faint(true),
		})
	}
	if w.queued > 0 {
		spans = append(spans, render.Span{
			Text:  fmt.Sprintf(" • %d queued", w.queued),
			Style: lipgloss.NewStyle().Faint(true),
		})
	}
	return render.Line{Spans: clampSpans(spans, width)}
}

func (w *StatusIndicatorWidget) marker() string {
	switch w.state {
	case StatusListening:
		return "●"
	case StatusWaiting:
		return "…"
	default:
		return "○"
	}
}

func (w *StatusIndicatorWidget) pauseTimerAt(now time.Time) {
	if w.paused {
		return
	}
	w.elapsedRunning += now.Sub(w.lastResumeAt)
	w.paused = true
}

func (w *StatusIndicatorWidget) elapsedDurationAt(now time.Time) time.Duration {
	if w.paused {
		return w.elapsedRunning
	}
	return w.elapsedRunning + now.Sub(w.lastResumeAt)
}

// fmtElapsedCompact 将秒数格式化为友好字符串。
func fmtElapsedCompact(elapsedSecs uint64) string {
	switch {
	case elapsedSecs < 60:
		return fmt.Sprintf("%ds", elapsedSecs)
	case elapsedSecs < 3600:
		return fmt.Sprintf("%dm %02ds", elapsedSecs/60, elapsedSecs%60)
	default:
		return fmt.Sprintf("%dh %02dm %02ds", elapsedSecs/3600, (elapsedSecs%3600)/60, elapsedSecs%60)
	}
}

func clampSpans(spans []render.Span, width int) []render.Span {
	if width <= 0 {
		return nil
	}
	remaining := width
	out := make([]render.Span, 0, len(spans))
	for _, sp := range spans {
		if remaining <= 0 {
			break
		}
		tw := runewidth.StringWidth(sp.Text)
		if tw <= remaining {
			out = append(out, sp)
			remaining -= tw
			continue
		}
		if text := runewidth.Truncate(sp.Text, remaining, ""); text != "" {
			sp.Text = text
			out = append(out, sp)
		}
		remaining = 0
	}
	return out
}
