package render

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"flow-cli/internal/layout"
	"flow-cli/internal/transcript"
)

// Surface 包装 bubbles viewport，作为气泡的滚动容器。
// 内容高度严格等于布局给出的 TotalHeight。
type Surface struct {
	vp      viewport.Model
	metrics layout.Metrics
	theme   Theme
	lines   []Line
	total   int
}

// NewSurface 创建 width x height 的滚动视口。
func NewSurface(width, height int, m layout.Metrics, theme Theme) *Surface {
	m.ViewportWidth = width
	vp := viewport.New(width, height)
	vp.SetContent("")
	return &Surface{vp: vp, metrics: m, theme: theme}
}

// Metrics 返回当前布局参数，ViewportWidth 与视口宽度一致。
func (s *Surface) Metrics() layout.Metrics {
	return s.metrics
}

// Render 用布局结果重建全部内容并滚动到底部。
func (s *Surface) Render(entries []transcript.Entry, res layout.Result) {
	s.lines = BubbleLines(entries, res, s.metrics, s.theme)
	s.total = res.TotalHeight
	s.vp.SetContent(strings.Join(LinesToStrings(s.lines), "\n"))
	s.ScrollToBottom()
}

// ScrollToBottom 使最后一行可见；内容短于视口时偏移为 0。
func (s *Surface) ScrollToBottom() {
	s.vp.GotoBottom()
}

// ScrollTo 设置纵向偏移，超出范围时由视口收敛。
func (s *Surface) ScrollTo(offset int) {
	s.vp.SetYOffset(offset)
}

func (s *Surface) ScrollLineUp(n int) {
	s.vp.ScrollUp(n)
}

func (s *Surface) ScrollLineDown(n int) {
	s.vp.ScrollDown(n)
}

// Offset 返回当前纵向偏移。
func (s *Surface) Offset() int {
	return s.vp.YOffset
}

// ContentSize 返回内容宽高（行）。
func (s *Surface) ContentSize() (width, height int) {
	return s.metrics.ViewportWidth, s.total
}

// ViewportHeight 返回可见行数。
func (s *Surface) ViewportHeight() int {
	return s.vp.Height
}

// AtBottom 报告最后一行是否可见。
func (s *Surface) AtBottom() bool {
	return s.vp.AtBottom()
}

// PlainLines 返回无样式的全部内容行。
func (s *Surface) PlainLines() []string {
	return LinesToPlainStrings(s.lines)
}

func (s *Surface) View() string {
	return s.vp.View()
}
