package anthropic

import (
	"context"
	"errors"
	"strings"

	"flow-cli/internal/peer"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Options struct {
	Token   string
	BaseURL string
	Model   string
	System  string
}

type Client struct {
	api    *anthropic.Client
	model  string
	system string
}

var _ peer.Responder = (*Client)(nil)

const defaultModel = "claude-3-5-haiku-latest"

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("missing token")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	client := anthropic.NewClient(reqOpts...)

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	system := strings.TrimSpace(opts.System)
	if system == "" {
		system = peer.DefaultSystemPrompt
	}
	return &Client{api: &client, model: model, system: system}, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	base = strings.TrimSuffix(base, "/v1")
	return strings.TrimRight(base, "/")
}

func (c *Client) Name() string {
	return "anthropic:" + c.model
}

func (c *Client) Respond(ctx context.Context, text string) (string, error) {
	msg, err := c.api.Messages.New(ctx, buildMessageParams(anthropic.Model(c.model), c.system, text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractText(msg.Content)), nil
}

func buildMessageParams(model anthropic.Model, system, text string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(strings.TrimSpace(text))),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func extractText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(v.Text)
		}
	}
	return sb.String()
}
