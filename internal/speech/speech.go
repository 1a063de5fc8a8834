// Package speech turns the user's voice into text for the watch.
package speech

import (
	"context"
	"errors"
)

// Status 为一次听写会话的结果状态。
type Status int

const (
	Success Status = iota
	Failure
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

// Result 为听写输出；Failure 时 Err 给出原因。
type Result struct {
	Text   string
	Status Status
	Err    error
}

var (
	ErrCancelled = errors.New("cancelled")
	ErrNoSpeech  = errors.New("no speech detected")
)

// Succeeded 构造成功结果。
func Succeeded(text string) Result {
	return Result{Text: text, Status: Success}
}

// Failed 构造失败结果；err 为 nil 时使用 ErrNoSpeech。
func Failed(err error) Result {
	if err == nil {
		err = ErrNoSpeech
	}
	return Result{Status: Failure, Err: err}
}

// Reason 返回可读的失败原因。
func (r Result) Reason() string {
	if r.Err == nil {
		return "unknown error"
	}
	return r.Err.Error()
}

// Service runs one dictation session and blocks until it finishes.
type Service interface {
	Transcribe(ctx context.Context) Result
}
