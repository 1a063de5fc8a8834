package tui

import (
	"context"
	"errors"
	"time"

	"flow-cli/internal/config"
	"flow-cli/internal/exchange"
	"flow-cli/internal/haptic"
	"flow-cli/internal/layout"
	"flow-cli/internal/logger"
	"flow-cli/internal/speech"
	"flow-cli/internal/transcript"
	"flow-cli/internal/transport"
	"flow-cli/internal/tui/render"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Options struct {
	Config config.Config
	Link   transport.Link
	// Speech 为 nil 时改用键盘输入代替听写。
	Speech    speech.Service
	Buzzer    haptic.Buzzer
	Clipboard func(string) error
	Clock     func() time.Time
}

type linkEventMsg struct {
	Event transport.Event
}

type linkClosedMsg struct{}

type transcriptionMsg struct {
	Result speech.Result
}

type clipboardMsg struct {
	Err error
}

type inputMode int

const (
	modeWatch inputMode = iota
	modeListening
	modeTyping
	modeSearching
)

type Model struct {
	cfg  config.Config
	keys keyMap
	help help.Model

	store      *transcript.Store
	measurer   layout.Measurer
	layout     layout.Result
	surface    *render.Surface
	controller *exchange.Controller
	animator   *PendingAnimator
	timers     *replyTimers
	status     *StatusIndicatorWidget

	link      transport.Link
	events    <-chan transport.Event
	speech    speech.Service
	buzzer    haptic.Buzzer
	copyText  func(string) error
	cancelRec context.CancelFunc

	mode   inputMode
	prompt textinput.Model
	search searchState
	notice string

	transcriptDirty bool
	linkClosed      bool
	pendingDrop     string
	log             *logger.LogEntry
}

func New(opts Options) *Model {
	cfg := opts.Config
	metrics := layout.Metrics{
		ViewportWidth: cfg.Display.Width,
		PaddingH:      cfg.Layout.PaddingH,
		PaddingV:      cfg.Layout.PaddingV,
		Gap:           cfg.Layout.Gap,
	}
	surfaceHeight := maxInt(cfg.Display.Height-cfg.Display.AnimationHeight, 1)

	prompt := textinput.New()
	prompt.Prompt = "› "
	prompt.Placeholder = "say something…"
	// 记录只保留 MaxMessageLength-1 个字符，输入框与之对齐。
	prompt.CharLimit = maxInt(cfg.Transcript.MaxMessageLength-1, 1)
	prompt.Width = maxInt(cfg.Display.Width-4, 8)

	buzzer := opts.Buzzer
	if buzzer == nil {
		buzzer = haptic.Noop{}
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	m := &Model{
		cfg:             cfg,
		keys:            defaultKeyMap(),
		help:            help.New(),
		store:           transcript.NewStore(cfg.Transcript.MaxMessages, cfg.Transcript.MaxMessageLength),
		measurer:        layout.WordWrap{},
		surface:         render.NewSurface(cfg.Display.Width, surfaceHeight, metrics, render.DefaultTheme()),
		animator:        NewPendingAnimator(cfg.Display.AnimationInterval(), cfg.Display.AnimationDelay()),
		timers:          &replyTimers{},
		status:          NewStatusIndicatorWidget(opts.Clock),
		link:            opts.Link,
		speech:          opts.Speech,
		buzzer:          buzzer,
		copyText:        copyText,
		prompt:          prompt,
		search:          searchState{input: newSearchInput(cfg.Display.Width)},
		transcriptDirty: true,
		log:             logger.Named("tui"),
	}
	if opts.Link != nil {
		m.events = opts.Link.Events()
	}
	m.controller = exchange.New(m.store, m, m, m.animator, m.timers, exchange.Config{
		ReplyTimeout:        cfg.Exchange.ReplyTimeout(),
		SurfaceSpeechErrors: cfg.Exchange.SurfaceSpeechErrors,
	}, exchange.WithLogger(logger.Named("exchange")))
	return m
}

func (m *Model) Init() tea.Cmd {
	m.flushTranscript()
	return m.listenLink()
}

// Redraw 由 exchange.Controller 在记录变化后调用。
func (m *Model) Redraw() {
	m.refreshTranscript()
}

// Send 将负载交给链路；链路缺失时按丢弃处理，由 finish 交给控制器。
func (m *Model) Send(p transport.Payload) {
	if m.link == nil || m.linkClosed {
		m.log.WithField("type", "link.unavailable").Warn("no link to the phone")
		m.notice = "phone link unavailable"
		m.pendingDrop = "link closed"
		return
	}
	m.link.Send(p)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m.finish(cmds...)
	case animTickMsg:
		if cmd := m.animator.OnTick(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m.finish(cmds...)
	case replyTimeoutMsg:
		_ = m.controller.OnTimeout(msg.ID)
		return m.finish(cmds...)
	case linkEventMsg:
		m.handleLinkEvent(msg.Event)
		cmds = append(cmds, m.listenLink())
		return m.finish(cmds...)
	case linkClosedMsg:
		m.linkClosed = true
		m.notice = "phone link closed"
		m.log.WithField("type", "link.closed").Warn("link to the phone closed")
		return m.finish(cmds...)
	case transcriptionMsg:
		m.cancelRec = nil
		m.mode = modeWatch
		m.handleTranscription(msg.Result)
		return m.finish(cmds...)
	case clipboardMsg:
		if msg.Err != nil {
			m.notice = "copy failed: " + msg.Err.Error()
		} else {
			m.notice = "reply copied"
		}
		return m.finish(cmds...)
	case tea.KeyMsg:
		switch m.mode {
		case modeListening:
			return m.updateListening(msg)
		case modeTyping:
			return m.updateTyping(msg)
		case modeSearching:
			return m.updateSearch(msg)
		}
		return m.updateWatch(msg)
	}
	return m.finish(cmds...)
}

func (m *Model) updateWatch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.LongSelect):
		m.log.WithField("type", "select.long").Info("long select has no action")
		return m.finish()
	case key.Matches(msg, m.keys.Select):
		return m.finish(m.startDictation())
	case key.Matches(msg, m.keys.Up):
		m.surface.ScrollLineUp(1)
		return m.finish()
	case key.Matches(msg, m.keys.Down):
		m.surface.ScrollLineDown(1)
		return m.finish()
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearching
		m.search.input.Reset()
		m.search.matches = nil
		return m.finish(m.search.input.Focus())
	case key.Matches(msg, m.keys.Copy):
		return m.finish(m.copyLastReply())
	}
	return m.finish()
}

func (m *Model) updateListening(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) && m.cancelRec != nil {
		m.cancelRec()
	}
	return m.finish()
}

func (m *Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closePrompt()
		m.handleTranscription(speech.Failed(speech.ErrCancelled))
		return m.finish()
	case "enter":
		text := m.prompt.Value()
		m.closePrompt()
		m.handleTranscription(speech.Succeeded(text))
		return m.finish()
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m.finish(cmd)
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closeSearch()
		return m.finish()
	case "enter":
		m.jumpToMatch()
		m.closeSearch()
		return m.finish()
	}
	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	m.search.update(m.store.Entries())
	return m.finish(cmd)
}

// finish 刷新脏记录、同步状态行，并带上本轮产生的计时命令。
func (m *Model) finish(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if reason := m.pendingDrop; reason != "" {
		m.pendingDrop = ""
		_ = m.controller.OnDropped(reason)
	}
	m.flushTranscript()
	m.syncStatus()
	if cmd := m.animator.Arm(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.timers.drain()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	width := m.cfg.Display.Width
	watch := lipgloss.JoinVertical(lipgloss.Left,
		m.surface.View(),
		render.RenderWave(width, m.cfg.Display.AnimationHeight, m.animator.Frame()),
	)
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Render(watch)

	rows := []string{frame, m.renderStatus(width + 2)}
	switch m.mode {
	case modeTyping:
		rows = append(rows, m.prompt.View())
	case modeSearching:
		line := m.search.input.View()
		if s := m.search.summary(); s != "" {
			line += "  " + hintStyle.Render(s)
		}
		rows = append(rows, line)
	default:
		if m.notice != "" {
			rows = append(rows, hintStyle.Render(m.notice))
		}
	}
	rows = append(rows, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Entries 返回当前记录的副本。
func (m *Model) Entries() []transcript.Entry {
	return m.store.Entries()
}

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85"))

func (m *Model) renderStatus(width int) string {
	line := m.status.Render(width)
	return render.LinesToStrings([]render.Line{line})[0]
}

func (m *Model) startDictation() tea.Cmd {
	if m.speech == nil {
		m.mode = modeTyping
		m.prompt.Reset()
		return m.prompt.Focus()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRec = cancel
	m.mode = modeListening
	svc := m.speech
	m.log.WithField("type", "speech.start").Info("dictation started")
	return func() tea.Msg {
		defer cancel()
		return transcriptionMsg{Result: svc.Transcribe(ctx)}
	}
}

func (m *Model) handleTranscription(r speech.Result) {
	err := m.controller.OnTranscription(r)
	switch {
	case err == nil:
	case errors.Is(err, speech.ErrCancelled), errors.Is(err, exchange.ErrEmptyInput):
		m.log.WithField("type", "speech.skipped").Debug(err.Error())
	case errors.Is(err, transcript.ErrCapacityExceeded):
		m.notice = "transcript is full"
	default:
		m.log.WithField("type", "speech.result").Debug(err.Error())
	}
}

func (m *Model) handleLinkEvent(evt transport.Event) {
	switch evt.Kind {
	case transport.EventMessage:
		if _, ok := evt.Fields[transport.KeyActionResponse]; ok {
			m.buzzer.Buzz()
		}
		_ = m.controller.OnMessage(evt.Fields)
	case transport.EventDropped:
		_ = m.controller.OnDropped(evt.Reason)
	}
}

func (m *Model) listenLink() tea.Cmd {
	ch := m.events
	if ch == nil || m.linkClosed {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return linkClosedMsg{}
		}
		return linkEventMsg{Event: evt}
	}
}

func (m *Model) copyLastReply() tea.Cmd {
	last, ok := m.store.Last(transcript.Assistant)
	if !ok {
		m.notice = "nothing to copy"
		return nil
	}
	copyText := m.copyText
	return func() tea.Msg {
		return clipboardMsg{Err: copyText(last.Text)}
	}
}

func (m *Model) jumpToMatch() {
	idx, ok := m.search.best()
	if !ok || idx >= len(m.layout.Blocks) {
		m.notice = "no match"
		return
	}
	m.surface.ScrollTo(m.layout.Blocks[idx].OriginY)
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.prompt.Reset()
	m.mode = modeWatch
}

func (m *Model) closeSearch() {
	m.search.input.Blur()
	m.mode = modeWatch
}

func (m *Model) syncStatus() {
	switch {
	case m.mode == modeListening || m.mode == modeTyping:
		m.status.SetState(StatusListening)
	case m.controller.Pending():
		m.status.SetState(StatusWaiting)
	default:
		m.status.SetState(StatusIdle)
	}
	m.status.SetQueued(m.controller.Queued())
}

func (m *Model) refreshTranscript() {
	m.transcriptDirty = true
}

func (m *Model) flushTranscript() {
	if !m.transcriptDirty {
		return
	}
	entries := m.store.Entries()
	m.layout = layout.Layout(entries, m.surface.Metrics(), m.measurer)
	m.surface.Render(entries, m.layout)
	m.transcriptDirty = false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
