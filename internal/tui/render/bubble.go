package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"flow-cli/internal/layout"
	"flow-cli/internal/transcript"
)

// Theme 定义气泡文字样式。
type Theme struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
}

// DefaultTheme 用户消息加粗右对齐，助手消息常规左对齐。
func DefaultTheme() Theme {
	return Theme{
		User:      lipgloss.NewStyle().Bold(true),
		Assistant: lipgloss.NewStyle(),
	}
}

// BubbleLines places every block's wrapped text at its origin row. The result has
// exactly res.TotalHeight rows, each ViewportWidth cells wide; rows not covered by
// text (vertical padding and gaps) are blank.
func BubbleLines(entries []transcript.Entry, res layout.Result, m layout.Metrics, theme Theme) []Line {
	rows := make([]Line, res.TotalHeight)
	blank := strings.Repeat(" ", maxInt(m.ViewportWidth, 0))
	for i := range rows {
		rows[i] = Line{Spans: []Span{{Text: blank}}}
	}
	width := m.TextWidth()
	for _, blk := range res.Blocks {
		if blk.Index < 0 || blk.Index >= len(entries) {
			continue
		}
		entry := entries[blk.Index]
		style := theme.Assistant
		if entry.Speaker == transcript.User {
			style = theme.User
		}
		for j, text := range layout.Wrap(entry.Text, width) {
			y := blk.OriginY + j
			if y >= len(rows) || j >= blk.Height {
				break
			}
			rows[y] = bubbleRow(text, blk.Alignment, m, width, style)
		}
	}
	return rows
}

func bubbleRow(text string, align layout.Alignment, m layout.Metrics, width int, style lipgloss.Style) Line {
	free := width - runewidth.StringWidth(text)
	if free < 0 {
		free = 0
	}
	left := m.PaddingH
	right := m.PaddingH
	if align == layout.AlignRight {
		left += free
	} else {
		right += free
	}
	return Line{Spans: []Span{
		{Text: strings.Repeat(" ", maxInt(left, 0))},
		{Text: text, Style: style},
		{Text: strings.Repeat(" ", maxInt(right, 0))},
	}}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
