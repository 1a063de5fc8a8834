package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"

	"flow-cli/internal/transcript"
)

// searchState 保存 "/" 搜索的输入与匹配结果。
type searchState struct {
	input   textinput.Model
	matches fuzzy.Matches
}

func newSearchInput(width int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search transcript"
	ti.CharLimit = 64
	ti.Width = maxInt(width-4, 8)
	return ti
}

// entrySource 让 fuzzy 直接在记录上匹配。
type entrySource []transcript.Entry

func (s entrySource) String(i int) string { return s[i].Text }
func (s entrySource) Len() int            { return len(s) }

func (s *searchState) update(entries []transcript.Entry) {
	query := strings.TrimSpace(s.input.Value())
	if query == "" {
		s.matches = nil
		return
	}
	s.matches = fuzzy.FindFrom(query, entrySource(entries))
}

// best 返回得分最高的记录下标。
func (s *searchState) best() (int, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	return s.matches[0].Index, true
}

func (s *searchState) summary() string {
	switch n := len(s.matches); {
	case strings.TrimSpace(s.input.Value()) == "":
		return ""
	case n == 0:
		return "no match"
	case n == 1:
		return "1 match"
	default:
		return fmt.Sprintf("%d matches", n)
	}
}
