package render

import (
	"strings"
	"testing"

	"flow-cli/internal/layout"
	"flow-cli/internal/transcript"
)

var testMetrics = layout.Metrics{PaddingH: 1, PaddingV: 1, Gap: 1}

func renderEntries(s *Surface, entries []transcript.Entry) layout.Result {
	res := layout.Layout(entries, s.Metrics(), layout.WordWrap{})
	s.Render(entries, res)
	return res
}

func TestSurfaceRender_ContentHeightMatchesLayout(t *testing.T) {
	s := NewSurface(20, 10, testMetrics, DefaultTheme())
	entries := []transcript.Entry{
		{Text: "hello", Speaker: transcript.User},
		{Text: "hi there, how can I help today", Speaker: transcript.Assistant},
	}
	res := renderEntries(s, entries)
	w, h := s.ContentSize()
	if w != 20 || h != res.TotalHeight {
		t.Fatalf("ContentSize = %dx%d, want 20x%d", w, h, res.TotalHeight)
	}
	if got := len(s.PlainLines()); got != res.TotalHeight {
		t.Fatalf("rendered rows = %d, want %d", got, res.TotalHeight)
	}
}

func TestSurfaceRender_AlignsBySpeaker(t *testing.T) {
	s := NewSurface(20, 10, testMetrics, DefaultTheme())
	entries := []transcript.Entry{
		{Text: "hello", Speaker: transcript.User},
		{Text: "hey", Speaker: transcript.Assistant},
	}
	renderEntries(s, entries)
	lines := s.PlainLines()
	// block 0 at row 0 (height 2), gap row 2, block 1 at row 3.
	if lines[0] != strings.Repeat(" ", 14)+"hello"+" " {
		t.Fatalf("user row = %q", lines[0])
	}
	if lines[3] != " hey"+strings.Repeat(" ", 16) {
		t.Fatalf("assistant row = %q", lines[3])
	}
	if strings.TrimSpace(lines[1]) != "" || strings.TrimSpace(lines[2]) != "" {
		t.Fatalf("padding and gap rows should be blank: %q %q", lines[1], lines[2])
	}
}

func TestSurfaceRender_ScrollsToBottom(t *testing.T) {
	s := NewSurface(20, 4, testMetrics, DefaultTheme())
	var entries []transcript.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, transcript.Entry{Text: "message", Speaker: transcript.User})
	}
	res := renderEntries(s, entries)
	if want := res.TotalHeight - 4; s.Offset() != want {
		t.Fatalf("Offset = %d, want %d", s.Offset(), want)
	}
	if !s.AtBottom() {
		t.Fatalf("surface should be at bottom after render")
	}

	s.ScrollLineUp(3)
	if s.Offset() != res.TotalHeight-7 {
		t.Fatalf("Offset after scroll up = %d", s.Offset())
	}
	renderEntries(s, entries)
	if !s.AtBottom() {
		t.Fatalf("render must scroll back to bottom")
	}
}

func TestSurfaceRender_ShortContentKeepsZeroOffset(t *testing.T) {
	s := NewSurface(20, 10, testMetrics, DefaultTheme())
	renderEntries(s, []transcript.Entry{{Text: "hello", Speaker: transcript.User}})
	if s.Offset() != 0 {
		t.Fatalf("Offset = %d, want 0", s.Offset())
	}
}

func TestSurfaceScrollTo(t *testing.T) {
	s := NewSurface(20, 4, testMetrics, DefaultTheme())
	var entries []transcript.Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, transcript.Entry{Text: "line", Speaker: transcript.Assistant})
	}
	res := renderEntries(s, entries)
	s.ScrollTo(res.Blocks[1].OriginY)
	if s.Offset() != res.Blocks[1].OriginY {
		t.Fatalf("Offset = %d, want %d", s.Offset(), res.Blocks[1].OriginY)
	}
}

func TestWaveRows_Shape(t *testing.T) {
	rows := WaveRows(36, 3, 0)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, r := range rows {
		if n := len([]rune(r)); n != 36 {
			t.Fatalf("row %d width = %d, want 36", i, n)
		}
	}
	if strings.ContainsRune(rows[2], ' ') {
		t.Fatalf("bottom row should be fully under water: %q", rows[2])
	}
	if strings.ContainsRune(rows[0], '█') {
		t.Fatalf("top row should be above the water: %q", rows[0])
	}
}

func TestWaveRows_FramesDiffer(t *testing.T) {
	a := strings.Join(WaveRows(36, 6, 0), "\n")
	b := strings.Join(WaveRows(36, 6, 1), "\n")
	if a == b {
		t.Fatalf("frame 1 should move the surface")
	}
	if WaveRows(0, 3, 0) != nil {
		t.Fatalf("zero width should render nothing")
	}
}
