package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap 将手表按键映射到键盘。
type keyMap struct {
	Select     key.Binding
	LongSelect key.Binding
	Up         key.Binding
	Down       key.Binding
	Search     key.Binding
	Copy       key.Binding
	Back       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "dictate"),
		),
		LongSelect: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("alt+enter", "actions"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "scroll down"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy reply"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp 满足 help.KeyMap。
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Search, k.Copy, k.Back}
}

// FullHelp 满足 help.KeyMap。
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.LongSelect},
		{k.Up, k.Down},
		{k.Search, k.Copy, k.Back},
	}
}
