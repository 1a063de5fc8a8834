// Package exchange drives one watch/phone conversation: it records what the user
// said, forwards it to the phone, and resolves the exchange on reply, drop, or timeout.
package exchange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flow-cli/internal/logger"
	"flow-cli/internal/speech"
	"flow-cli/internal/transcript"
	"flow-cli/internal/transport"
)

// State 为会话状态。
type State int

const (
	Idle State = iota
	AwaitingReply
)

func (s State) String() string {
	if s == AwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// 显示给用户的诊断文本。
const (
	TextDropped        = "Message was dropped between the phone and the Pebble"
	TextMalformedReply = "tuple error"
	TextNoReply        = "No reply from the phone"
	textSpeechFailed   = "Dictation failed: "
)

var (
	ErrEmptyInput     = errors.New("empty transcription")
	ErrMalformedReply = errors.New("reply has no ActionResponse")
	ErrDropped        = errors.New("message dropped")
	ErrTimeout        = errors.New("no reply before timeout")
	ErrSpeechFailure  = errors.New("dictation failed")
)

// Surface redraws the transcript after the store changes.
type Surface interface {
	Redraw()
}

// Sender hands an outbound payload to the transport without blocking.
type Sender interface {
	Send(p transport.Payload)
}

// Animator shows the "thinking" animation while an exchange is pending.
type Animator interface {
	Start()
	Stop()
}

// Timer calls back OnTimeout(id) after d; the caller owns the delivery.
type Timer interface {
	After(id string, d time.Duration)
}

type Config struct {
	// ReplyTimeout 为 0 时不设超时。
	ReplyTimeout time.Duration
	// SurfaceSpeechErrors 为 true 时听写失败会显示为一条助手气泡。
	SurfaceSpeechErrors bool
}

// Controller is the exchange state machine. It is not safe for concurrent use;
// all calls must come from the UI loop.
type Controller struct {
	store    *transcript.Store
	surface  Surface
	sender   Sender
	animator Animator
	timer    Timer
	cfg      Config

	state  State
	active string
	queue  []string
	newID  func() string
	log    *logger.LogEntry
}

type Option func(*Controller)

// WithIDFunc 替换 ExchangeID 生成器，测试使用。
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

func WithLogger(entry *logger.LogEntry) Option {
	return func(c *Controller) {
		if entry != nil {
			c.log = entry
		}
	}
}

func New(store *transcript.Store, surface Surface, sender Sender, animator Animator, timer Timer, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		surface:  surface,
		sender:   sender,
		animator: animator,
		timer:    timer,
		cfg:      cfg,
		state:    Idle,
		newID:    uuid.NewString,
		log:      logger.Named("exchange"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State { return c.state }

// Pending 报告是否在等待手机回复。
func (c *Controller) Pending() bool { return c.state == AwaitingReply }

// Queued 返回排队等待发送的转写数量。
func (c *Controller) Queued() int { return len(c.queue) }

// ActiveID 返回当前会话的 ExchangeID，空闲时为空。
func (c *Controller) ActiveID() string { return c.active }

// OnTranscription handles the end of a dictation session. A successful transcript
// is shown right away; it is sent immediately when idle and queued otherwise.
func (c *Controller) OnTranscription(r speech.Result) error {
	if r.Status != speech.Success {
		reason := r.Reason()
		c.log.WithFields(logger.Fields{"type": "speech.failed", "reason": reason}).Warn("dictation failed")
		if c.cfg.SurfaceSpeechErrors {
			c.appendAndRedraw(textSpeechFailed+reason, transcript.Assistant)
		}
		return fmt.Errorf("%w: %s", ErrSpeechFailure, reason)
	}
	text := r.Text
	if strings.TrimSpace(text) == "" {
		c.log.WithField("type", "speech.empty").Info("ignoring empty transcription")
		return ErrEmptyInput
	}
	if res := c.store.Append(text, transcript.User); res != transcript.AppendOK {
		c.log.WithFields(logger.Fields{"type": "transcript.rejected", "result": res}).Warn("failed to add message to bubble list")
		return res.Err()
	}
	c.redraw()

	if c.state == AwaitingReply {
		c.queue = append(c.queue, text)
		c.log.WithFields(logger.Fields{"type": "exchange.queued", "queued": len(c.queue), "exchange_id": c.active}).Info("transcription queued behind pending exchange")
		return nil
	}
	c.dispatch(text)
	return nil
}

// OnMessage handles an inbound payload from the phone. A reply tagged with another
// exchange's id is still shown but leaves the current exchange pending.
func (c *Controller) OnMessage(fields transport.Payload) error {
	var outErr error
	text, ok := fields[transport.KeyActionResponse]
	if !ok {
		c.log.WithFields(logger.Fields{"type": "reply.malformed", "fields": fields.String()}).Warn("reply without ActionResponse")
		text = TextMalformedReply
		outErr = ErrMalformedReply
	}
	if res := c.store.Append(text, transcript.Assistant); res != transcript.AppendOK {
		c.log.WithFields(logger.Fields{"type": "transcript.rejected", "result": res}).Warn("reply not added to bubble list")
	} else {
		c.redraw()
	}

	if c.state != AwaitingReply {
		c.log.WithField("type", "reply.unsolicited").Info("reply arrived while idle")
		return outErr
	}
	if id := fields[transport.KeyExchangeID]; id != "" && id != c.active {
		c.log.WithFields(logger.Fields{"type": "reply.late", "exchange_id": id, "active": c.active}).Info("reply for a previous exchange")
		return outErr
	}
	c.log.WithFields(logger.Fields{"type": "reply.received", "exchange_id": c.active}).Info("exchange resolved")
	c.resolve()
	return outErr
}

// OnDropped reports a message lost between watch and phone.
func (c *Controller) OnDropped(reason string) error {
	c.log.WithFields(logger.Fields{"type": "message.dropped", "reason": reason, "state": c.state}).Warn("message dropped")
	c.appendAndRedraw(TextDropped, transcript.Assistant)
	if c.state == AwaitingReply {
		c.resolve()
	}
	return fmt.Errorf("%w: %s", ErrDropped, reason)
}

// OnTimeout fires when the reply timer for id expires. Stale timers are ignored.
func (c *Controller) OnTimeout(id string) error {
	if c.state != AwaitingReply || id != c.active {
		return nil
	}
	c.log.WithFields(logger.Fields{"type": "reply.timeout", "exchange_id": id}).Warn("no reply before timeout")
	c.appendAndRedraw(TextNoReply, transcript.Assistant)
	c.resolve()
	return ErrTimeout
}

func (c *Controller) dispatch(text string) {
	id := c.newID()
	c.active = id
	c.state = AwaitingReply
	c.sender.Send(transport.Payload{
		transport.KeyTranscription: text,
		transport.KeyExchangeID:    id,
	})
	if c.animator != nil {
		c.animator.Start()
	}
	if c.cfg.ReplyTimeout > 0 && c.timer != nil {
		c.timer.After(id, c.cfg.ReplyTimeout)
	}
	c.log.WithFields(logger.Fields{"type": "exchange.sent", "exchange_id": id}).Info("transcription sent to phone")
}

func (c *Controller) resolve() {
	c.state = Idle
	c.active = ""
	if c.animator != nil {
		c.animator.Stop()
	}
	if len(c.queue) == 0 {
		return
	}
	next := c.queue[0]
	c.queue = c.queue[1:]
	c.dispatch(next)
}

func (c *Controller) appendAndRedraw(text string, speaker transcript.Speaker) {
	if res := c.store.Append(text, speaker); res != transcript.AppendOK {
		c.log.WithFields(logger.Fields{"type": "transcript.rejected", "result": res}).Warn("failed to add message to bubble list")
		return
	}
	c.redraw()
}

func (c *Controller) redraw() {
	if c.surface != nil {
		c.surface.Redraw()
	}
}
