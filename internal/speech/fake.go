package speech

import (
	"context"
	"sync"
)

// Fake replays scripted results in order, then reports ErrNoSpeech.
type Fake struct {
	mu      sync.Mutex
	results []Result
	calls   int
}

func NewFake(results ...Result) *Fake {
	return &Fake{results: results}
}

func (f *Fake) Transcribe(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Failed(ErrCancelled)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return Failed(ErrNoSpeech)
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r
}

// Calls 返回 Transcribe 被调用的次数。
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
