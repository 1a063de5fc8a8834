package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"flow-cli/internal/config"
	"flow-cli/internal/exchange"
	"flow-cli/internal/speech"
	"flow-cli/internal/transcript"
	"flow-cli/internal/transport"

	tea "github.com/charmbracelet/bubbletea"
)

type stubLink struct {
	mu     sync.Mutex
	sent   []transport.Payload
	events chan transport.Event
}

func newStubLink() *stubLink {
	return &stubLink{events: make(chan transport.Event, 4)}
}

func (l *stubLink) Send(p transport.Payload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, p.Clone())
}

func (l *stubLink) Events() <-chan transport.Event { return l.events }

func (l *stubLink) Close() error { return nil }

func (l *stubLink) last() transport.Payload {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sent) == 0 {
		return nil
	}
	return l.sent[len(l.sent)-1]
}

type countingBuzzer struct{ n int }

func (b *countingBuzzer) Buzz() { b.n++ }

func newTestModel(t *testing.T, opts Options) (*Model, *stubLink) {
	t.Helper()
	link := newStubLink()
	if opts.Config.Display.Width == 0 {
		opts.Config = config.Default()
	}
	opts.Link = link
	m := New(opts)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return m, link
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(keyRunes(string(r)))
	}
}

// runCmd executes cmd and flattens batches; callers must not pass tick commands.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestTypedDictationSendsTranscription(t *testing.T) {
	m, link := newTestModel(t, Options{})

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeTyping {
		t.Fatalf("enter should open the dictation prompt, mode = %v", m.mode)
	}
	if m.status.State() != StatusListening {
		t.Fatalf("status = %v, want listening", m.status.State())
	}
	typeText(m, "hi there")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	sent := link.last()
	if sent[transport.KeyTranscription] != "hi there" {
		t.Fatalf("sent payload = %v", sent)
	}
	if sent[transport.KeyExchangeID] == "" {
		t.Fatalf("payload should carry an exchange id")
	}
	if !m.controller.Pending() || m.status.State() != StatusWaiting {
		t.Fatalf("exchange should be pending after sending")
	}
	entries := m.Entries()
	if len(entries) != 1 || entries[0].Speaker != transcript.User {
		t.Fatalf("entries = %+v", entries)
	}
	if !strings.Contains(strings.Join(m.surface.PlainLines(), "\n"), "hi there") {
		t.Fatalf("bubble not rendered: %q", m.surface.PlainLines())
	}
}

func TestReplyResolvesExchangeAndBuzzes(t *testing.T) {
	buzz := &countingBuzzer{}
	m, link := newTestModel(t, Options{Buzzer: buzz})

	m.handleTranscription(speech.Succeeded("what time is it"))
	id := link.last()[transport.KeyExchangeID]

	m.Update(linkEventMsg{Event: transport.Message(transport.Payload{
		transport.KeyActionResponse: "noon",
		transport.KeyExchangeID:     id,
	})})

	if m.controller.Pending() {
		t.Fatalf("reply should resolve the exchange")
	}
	if buzz.n != 1 {
		t.Fatalf("buzz count = %d, want 1", buzz.n)
	}
	last, ok := m.store.Last(transcript.Assistant)
	if !ok || last.Text != "noon" {
		t.Fatalf("last reply = %+v", last)
	}
	if m.status.State() != StatusIdle {
		t.Fatalf("status = %v, want idle", m.status.State())
	}
}

func TestDroppedAndTimeoutMessages(t *testing.T) {
	m, link := newTestModel(t, Options{})

	m.handleTranscription(speech.Succeeded("one"))
	m.Update(linkEventMsg{Event: transport.Dropped("no receiver")})
	if last, _ := m.store.Last(transcript.Assistant); last.Text != exchange.TextDropped {
		t.Fatalf("drop text = %q", last.Text)
	}
	if m.controller.Pending() {
		t.Fatalf("drop should resolve the exchange")
	}

	m.handleTranscription(speech.Succeeded("two"))
	id := link.last()[transport.KeyExchangeID]
	m.Update(replyTimeoutMsg{ID: "stale"})
	if !m.controller.Pending() {
		t.Fatalf("stale timer must be ignored")
	}
	m.Update(replyTimeoutMsg{ID: id})
	if last, _ := m.store.Last(transcript.Assistant); last.Text != exchange.TextNoReply {
		t.Fatalf("timeout text = %q", last.Text)
	}
}

func TestSpeechServiceResult(t *testing.T) {
	fake := speech.NewFake(speech.Failed(errors.New("mic busy")))
	m, link := newTestModel(t, Options{Speech: fake})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeListening {
		t.Fatalf("mode = %v, want listening", m.mode)
	}
	for _, msg := range runCmd(cmd) {
		m.Update(msg)
	}
	if m.mode != modeWatch {
		t.Fatalf("mode = %v after transcription", m.mode)
	}
	if link.last() != nil {
		t.Fatalf("failed dictation must not send anything")
	}
	last, _ := m.store.Last(transcript.Assistant)
	if last.Text != "Dictation failed: mic busy" {
		t.Fatalf("speech error text = %q", last.Text)
	}
}

func TestEscapeCancelsTypedDictation(t *testing.T) {
	m, link := newTestModel(t, Options{})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "never mind")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeWatch || link.last() != nil {
		t.Fatalf("esc should close the prompt without sending")
	}
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, Options{Clipboard: func(s string) error {
		copied = s
		return nil
	}})

	_, cmd := m.Update(keyRunes("y"))
	if m.notice != "nothing to copy" {
		t.Fatalf("notice = %q", m.notice)
	}
	if msgs := runCmd(cmd); len(msgs) != 0 {
		t.Fatalf("unexpected messages %v", msgs)
	}

	m.Update(linkEventMsg{Event: transport.Message(transport.Payload{transport.KeyActionResponse: "copy me"})})
	_, cmd = m.Update(keyRunes("y"))
	for _, msg := range runCmd(cmd) {
		m.Update(msg)
	}
	if copied != "copy me" || m.notice != "reply copied" {
		t.Fatalf("copied %q, notice %q", copied, m.notice)
	}
}

func TestSearchJumpsToMatchingBubble(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Height = 8
	m, _ := newTestModel(t, Options{Config: cfg})

	for _, text := range []string{"apples and pears", "weather is fine", "meeting at four", "call mom back"} {
		m.Update(linkEventMsg{Event: transport.Message(transport.Payload{transport.KeyActionResponse: text})})
	}
	if m.surface.Offset() == 0 {
		t.Fatalf("test setup: transcript should overflow the viewport")
	}

	m.Update(keyRunes("/"))
	if m.mode != modeSearching {
		t.Fatalf("mode = %v, want searching", m.mode)
	}
	typeText(m, "apples")
	if len(m.search.matches) == 0 {
		t.Fatalf("expected a fuzzy match")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != modeWatch {
		t.Fatalf("enter should close search")
	}
	if got, want := m.surface.Offset(), m.layout.Blocks[0].OriginY; got != want {
		t.Fatalf("offset = %d, want %d", got, want)
	}
}

func TestViewShowsWatchAndStatus(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	view := m.View()
	if !strings.Contains(view, "Press enter to talk") {
		t.Fatalf("status line missing from view")
	}
	if !strings.Contains(view, "█") {
		t.Fatalf("wave missing from view")
	}
}

func TestLinkClosedStopsListening(t *testing.T) {
	cfg := config.Default()
	cfg.Exchange.ReplyTimeoutSecs = 0
	m, link := newTestModel(t, Options{Config: cfg})
	m.Update(linkClosedMsg{})
	if m.listenLink() != nil {
		t.Fatalf("closed link must not be polled again")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "hello?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if link.last() != nil {
		t.Fatalf("nothing should be sent on a closed link")
	}
	if m.controller.Pending() {
		t.Fatalf("send on a closed link must resolve the exchange")
	}
	last, ok := m.store.Last(transcript.Assistant)
	if !ok || last.Text != exchange.TextDropped {
		t.Fatalf("last reply = %+v, want the drop bubble", last)
	}
	if m.status.State() != StatusIdle {
		t.Fatalf("status = %v, want idle", m.status.State())
	}
}

func TestPromptStopsAtStoredLength(t *testing.T) {
	cfg := config.Default()
	cfg.Transcript.MaxMessageLength = 6
	m, link := newTestModel(t, Options{Config: cfg})

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(m, "abcdefghij")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := link.last()[transport.KeyTranscription]; got != "abcde" {
		t.Fatalf("sent %q, want the first 5 characters", got)
	}
	if entries := m.Entries(); len(entries) != 1 || entries[0].Text != "abcde" {
		t.Fatalf("entries = %+v", entries)
	}
}
