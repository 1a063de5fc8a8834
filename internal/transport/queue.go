package transport

import (
	"context"
	"sync"

	"flow-cli/internal/logger"
)

// outbox 是有界的发送队列，满时直接拒绝而不是阻塞 UI。
type outbox struct {
	mu     sync.Mutex
	ch     chan Payload
	closed bool
	log    *logger.LogEntry
}

func newOutbox(capacity int, log *logger.LogEntry) *outbox {
	if capacity <= 0 {
		capacity = 8
	}
	return &outbox{ch: make(chan Payload, capacity), log: log}
}

// offer 非阻塞入队；队列满时返回 ErrOutboxFull。
func (q *outbox) offer(p Payload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- p:
		if q.log != nil {
			q.log.WithField("payload", p.String()).Debug("enqueued payload into outbox")
		}
		return nil
	default:
		return ErrOutboxFull
	}
}

// receive 读取一条待发送负载；队列关闭后返回 ErrClosed。
func (q *outbox) receive(ctx context.Context) (Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		return p, nil
	}
}

func (q *outbox) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// inbox 向唯一的消费者投递事件；慢消费者导致的溢出返回 ErrInboxFull。
type inbox struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newInbox(buffer int) *inbox {
	if buffer <= 0 {
		buffer = 16
	}
	return &inbox{ch: make(chan Event, buffer)}
}

func (q *inbox) deliver(ev Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- ev:
		return nil
	default:
		return ErrInboxFull
	}
}

// notify 投递通知事件；队列满时丢弃最旧的一条腾出位置，通知本身代表被挤掉的消息。
func (q *inbox) notify(ev Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	for {
		select {
		case q.ch <- ev:
			return nil
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

func (q *inbox) events() <-chan Event {
	return q.ch
}

func (q *inbox) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
