// Package layout turns transcript entries into vertically stacked bubble blocks.
package layout

import "flow-cli/internal/transcript"

// Alignment 决定气泡在行内的水平对齐。
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Block 描述一条记录在滚动内容中的位置与高度（单位：行）。
type Block struct {
	Index     int
	OriginY   int
	Height    int
	Alignment Alignment
}

// Metrics 为布局参数。
type Metrics struct {
	ViewportWidth int
	PaddingH      int
	PaddingV      int
	Gap           int
}

// TextWidth 返回气泡文本可用宽度，至少为 1。
func (m Metrics) TextWidth() int {
	w := m.ViewportWidth - 2*m.PaddingH
	if w < 1 {
		return 1
	}
	return w
}

type Result struct {
	Blocks      []Block
	TotalHeight int
}

// Layout stacks one block per entry from the top. Each block starts Gap rows
// below the previous one and the total height covers the last block exactly.
// The result depends only on its inputs.
func Layout(entries []transcript.Entry, m Metrics, measurer Measurer) Result {
	if measurer == nil {
		measurer = WordWrap{}
	}
	width := m.TextWidth()
	blocks := make([]Block, 0, len(entries))
	cursor := 0
	for i, e := range entries {
		lines := measurer.Measure(e.Text, width)
		if lines < 1 {
			lines = 1
		}
		h := lines + m.PaddingV
		blocks = append(blocks, Block{
			Index:     i,
			OriginY:   cursor,
			Height:    h,
			Alignment: alignmentFor(e.Speaker),
		})
		cursor += h + m.Gap
	}
	total := 0
	if len(blocks) > 0 {
		total = cursor - m.Gap
	}
	return Result{Blocks: blocks, TotalHeight: total}
}

func alignmentFor(s transcript.Speaker) Alignment {
	if s == transcript.User {
		return AlignRight
	}
	return AlignLeft
}
