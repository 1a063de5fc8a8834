package tui

import (
	"errors"

	"flow-cli/internal/transcript"

	tea "github.com/charmbracelet/bubbletea"
)

// Result 返回 TUI 退出时的记录。
type Result struct {
	Entries []transcript.Entry
}

// Run 封装 Bubble Tea 入口，返回最终的 UI 结果。
func Run(opts Options) (Result, error) {
	program := tea.NewProgram(New(opts), tea.WithAltScreen())
	m, err := program.Run()
	if err != nil {
		return Result{}, err
	}
	tuiModel, ok := m.(*Model)
	if !ok {
		return Result{}, errors.New("unexpected tui model")
	}
	if tuiModel.cancelRec != nil {
		tuiModel.cancelRec()
	}
	return Result{Entries: tuiModel.Entries()}, nil
}
