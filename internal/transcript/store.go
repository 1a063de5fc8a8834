// Package transcript holds the ordered, bounded log of chat entries shown on the watch.
package transcript

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Speaker 标记消息来源。
type Speaker int

const (
	User Speaker = iota
	Assistant
)

func (s Speaker) String() string {
	switch s {
	case User:
		return "user"
	case Assistant:
		return "assistant"
	default:
		return fmt.Sprintf("speaker(%d)", int(s))
	}
}

// Entry 为一条不可变的对话记录。
type Entry struct {
	Text    string
	Speaker Speaker
}

// AppendResult 是 Append 的结果码。
type AppendResult int

const (
	AppendOK AppendResult = iota
	AppendRejectedCapacity
	AppendRejectedEmpty
)

var (
	ErrCapacityExceeded = errors.New("transcript: capacity exceeded")
	ErrEmptyText        = errors.New("transcript: empty text")
	ErrOutOfRange       = errors.New("transcript: index out of range")
)

// Err maps a result to its sentinel error; AppendOK maps to nil.
func (r AppendResult) Err() error {
	switch r {
	case AppendRejectedCapacity:
		return ErrCapacityExceeded
	case AppendRejectedEmpty:
		return ErrEmptyText
	default:
		return nil
	}
}

func (r AppendResult) String() string {
	switch r {
	case AppendOK:
		return "ok"
	case AppendRejectedCapacity:
		return "rejected_capacity"
	case AppendRejectedEmpty:
		return "rejected_empty"
	default:
		return "unknown"
	}
}

// Store is an append-only log with a fixed capacity. Entries never move or change
// once stored, so an index stays valid for the lifetime of the store.
type Store struct {
	entries  []Entry
	capacity int
	maxRunes int
}

// NewStore 创建容量为 capacity 的记录表；maxLength 为单条消息缓冲区大小（含结尾），
// 文本最多保留 maxLength-1 个字符。
func NewStore(capacity, maxLength int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	maxRunes := maxLength - 1
	if maxRunes < 1 {
		maxRunes = 1
	}
	return &Store{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		maxRunes: maxRunes,
	}
}

// Append 追加一条记录。空文本与超出容量都会被拒绝，存储保持不变。
func (s *Store) Append(text string, speaker Speaker) AppendResult {
	if strings.TrimSpace(text) == "" {
		return AppendRejectedEmpty
	}
	if len(s.entries) >= s.capacity {
		return AppendRejectedCapacity
	}
	s.entries = append(s.entries, Entry{Text: truncate(text, s.maxRunes), Speaker: speaker})
	return AppendOK
}

func (s *Store) Count() int {
	return len(s.entries)
}

func (s *Store) Capacity() int {
	return s.capacity
}

// EntryAt 返回第 i 条记录，越界时返回 ErrOutOfRange。
func (s *Store) EntryAt(i int) (Entry, error) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(s.entries))
	}
	return s.entries[i], nil
}

// Entries 返回记录副本，供布局与渲染使用。
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Last 返回指定说话方的最后一条记录。
func (s *Store) Last(speaker Speaker) (Entry, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Speaker == speaker {
			return s.entries[i], true
		}
	}
	return Entry{}, false
}

func truncate(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes])
}
