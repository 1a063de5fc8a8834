package peer

import (
	"context"
	"errors"
	"sync"
	"time"

	"flow-cli/internal/logger"
	"flow-cli/internal/transport"
)

// ApologyText 为应答器失败时的回复。
const ApologyText = "Sorry, I couldn't get an answer right now."

// Companion is the phone app: it reads transcriptions from the link and answers
// each one with an ActionResponse carrying the same ExchangeID.
type Companion struct {
	link      transport.Link
	responder Responder
	timeout   time.Duration
	log       *logger.LogEntry
	rlog      logger.ResponderLogger
	wg        sync.WaitGroup
}

type CompanionOption func(*Companion)

// WithResponseTimeout 限制单次应答耗时。
func WithResponseTimeout(d time.Duration) CompanionOption {
	return func(c *Companion) { c.timeout = d }
}

func WithResponderLog(l logger.ResponderLogger) CompanionOption {
	return func(c *Companion) {
		if l != nil {
			c.rlog = l
		}
	}
}

func WithCompanionLogger(entry *logger.LogEntry) CompanionOption {
	return func(c *Companion) {
		if entry != nil {
			c.log = entry
		}
	}
}

func NewCompanion(link transport.Link, responder Responder, opts ...CompanionOption) *Companion {
	c := &Companion{
		link:      link,
		responder: responder,
		timeout:   60 * time.Second,
		log:       logger.Named("phone"),
		rlog:      logger.NoopResponderLog{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run 处理入站事件直到 ctx 取消或链路关闭；返回前等待进行中的应答完成。
func (c *Companion) Run(ctx context.Context) error {
	defer c.wg.Wait()
	events := c.link.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Companion) handle(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.EventDropped:
		c.log.WithField("reason", ev.Reason).Warn("reply dropped before reaching the watch")
	case transport.EventMessage:
		text, ok := ev.Fields[transport.KeyTranscription]
		if !ok {
			c.log.WithField("fields", ev.Fields.String()).Warn("message without Transcription")
			return
		}
		id := ev.Fields[transport.KeyExchangeID]
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.answer(ctx, id, text)
		}()
	}
}

func (c *Companion) answer(ctx context.Context, id, text string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := c.responder.Name()
	c.rlog.Request(name, text)
	start := time.Now()
	reply, err := c.responder.Respond(ctx, text)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		c.rlog.Error(name, err)
		reply = ApologyText
	default:
		c.rlog.Response(name, reply, time.Since(start))
	}

	out := transport.Payload{transport.KeyActionResponse: reply}
	if id != "" {
		out[transport.KeyExchangeID] = id
	}
	c.link.Send(out)
	c.log.WithFields(logger.Fields{"type": "reply.sent", "exchange_id": id}).Info("answered transcription")
}
