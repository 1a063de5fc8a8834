package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flow-cli/internal/peer"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	System  string
}

type Client struct {
	api    *openai.Client
	model  string
	system string
}

// 确保Client实现了peer.Responder接口
var _ peer.Responder = (*Client)(nil)

const defaultModel = "gpt-4o-mini"

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(strings.TrimRight(normalizeBaseURL(base), "/")))
	}
	client := openai.NewClient(cfg...)

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

func (c *Client) Name() string {
	return "openai:" + c.model
}

// Respond 通过 chat completions 生成一条简短回复。
func (c *Client) Respond(ctx context.Context, text string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, buildParams(c.model, c.system, text))
	if err != nil {
		return "", wrapHTTPError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildParams(model, system, text string) openai.ChatCompletionNewParams {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(text))
	return openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		raw := strings.TrimSpace(apiErr.RawJSON())
		if raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %v", apiErr.StatusCode, err)
	}
	return err
}
