package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLinePlainDropsStyling(t *testing.T) {
	bubble := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFFFFF"))
	cases := []struct {
		name string
		line Line
		want string
	}{
		{"empty", Line{}, ""},
		{"single span", Line{Spans: []Span{{Text: "noon", Style: bubble}}}, "noon"},
		{
			"mixed spans",
			Line{Spans: []Span{
				{Text: " ", Style: lipgloss.NewStyle()},
				{Text: "天气", Style: bubble.Bold(true)},
				{Text: " ok", Style: bubble.Italic(true)},
			}},
			" 天气 ok",
		},
		{
			"line style ignored",
			Line{Spans: []Span{{Text: "hi"}}, Style: lipgloss.NewStyle().PaddingLeft(2)},
			"hi",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.line.Plain()
			if got != tc.want {
				t.Fatalf("Plain() = %q, want %q", got, tc.want)
			}
			if strings.Contains(got, "\x1b") {
				t.Fatalf("Plain() contains ANSI sequences: %q", got)
			}
		})
	}
}

func TestLinesToPlainStringsMatchesRenderedText(t *testing.T) {
	lines := []Line{
		{Spans: []Span{{Text: "what time", Style: lipgloss.NewStyle().Bold(true)}}},
		{Spans: []Span{{Text: "is it"}}, Style: lipgloss.NewStyle().PaddingLeft(2)},
		{},
	}

	plain := LinesToPlainStrings(lines)
	styled := LinesToStrings(lines)
	if len(plain) != len(lines) || len(styled) != len(lines) {
		t.Fatalf("lengths: plain %d styled %d, want %d", len(plain), len(styled), len(lines))
	}
	want := []string{"what time", "is it", ""}
	for i := range want {
		if plain[i] != want[i] {
			t.Errorf("plain line %d = %q, want %q", i, plain[i], want[i])
		}
		if !strings.Contains(styled[i], want[i]) {
			t.Errorf("styled line %d = %q, missing %q", i, styled[i], want[i])
		}
	}
	if !strings.HasPrefix(styled[1], "  ") {
		t.Errorf("line style padding not applied: %q", styled[1])
	}
}
