// Package peer implements the phone side of the link: it answers transcriptions
// sent by the watch.
package peer

import (
	"context"
	"strings"
)

// DefaultSystemPrompt 约束 LLM 回复适合手表小屏。
const DefaultSystemPrompt = "You are a voice assistant answering on a smartwatch. Reply in one or two short sentences of plain text, no markdown."

// Responder produces the reply text for one transcription.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
	Name() string
}

// Echo answers with the transcription itself, prefixed when Prefix is set.
type Echo struct {
	Prefix string
}

func (e Echo) Name() string { return "echo" }

func (e Echo) Respond(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if e.Prefix == "" {
		return text, nil
	}
	return e.Prefix + text, nil
}
