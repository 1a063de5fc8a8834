package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type replyTimeoutMsg struct {
	ID string
}

// replyTimers collects timeouts requested during Update and hands them to Bubble
// Tea as tick commands when the update finishes.
type replyTimers struct {
	scheduled []tea.Cmd
}

func (t *replyTimers) After(id string, d time.Duration) {
	t.scheduled = append(t.scheduled, tea.Tick(d, func(time.Time) tea.Msg {
		return replyTimeoutMsg{ID: id}
	}))
}

func (t *replyTimers) drain() []tea.Cmd {
	out := t.scheduled
	t.scheduled = nil
	return out
}
