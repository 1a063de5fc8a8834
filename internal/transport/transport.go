// Package transport carries key/value messages between the watch and the phone.
// Delivery is asynchronous and lossy: Send never blocks, and a message that cannot
// be delivered comes back to the sender as a Dropped event.
package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// 负载中的约定键。
const (
	KeyTranscription  = "Transcription"
	KeyExchangeID     = "ExchangeID"
	KeyActionResponse = "ActionResponse"
)

// Payload 为一条键值消息。
type Payload map[string]string

// Clone 返回副本，发送后调用方可继续修改原 map。
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String 以稳定顺序输出键，便于日志比对。
func (p Payload) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, p[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// EventKind 标识入站事件类型。
type EventKind string

const (
	EventMessage EventKind = "message"
	EventDropped EventKind = "dropped"
)

// Event 为链路上报的入站事件。
type Event struct {
	Kind   EventKind
	Fields Payload
	Reason string
}

func Message(fields Payload) Event {
	return Event{Kind: EventMessage, Fields: fields}
}

func Dropped(reason string) Event {
	return Event{Kind: EventDropped, Reason: reason}
}

// Link is one endpoint of a watch/phone connection.
type Link interface {
	// Send queues p for delivery and returns immediately.
	Send(p Payload)
	// Events yields inbound messages and drop notices; it is closed by Close.
	Events() <-chan Event
	Close() error
}

var (
	ErrClosed      = errors.New("transport closed")
	ErrOutboxFull  = errors.New("outbox full")
	ErrInboxFull   = errors.New("inbox full")
	ErrNoReceiver  = errors.New("no receiver listening")
	ErrLostInRoute = errors.New("lost in transit")
	ErrUndecodable = errors.New("undecodable message")
)
