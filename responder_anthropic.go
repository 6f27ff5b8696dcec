package chatmem

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Defaults for the Anthropic responder.
const (
	DefaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicResponder is a thin pass-through responder backed by the
// Anthropic Messages API.
type AnthropicResponder struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

// NewAnthropicResponder creates an Anthropic-backed responder.
func NewAnthropicResponder(apiKey, model string, logger *slog.Logger) (*AnthropicResponder, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AnthropicResponder{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger.With(slog.String("component", "chatmem.responder.anthropic")),
	}, nil
}

// Respond sends the conversation to Anthropic and returns the reply.
func (r *AnthropicResponder) Respond(ctx context.Context, req ReplyRequest) (*Reply, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Message)))

	r.logger.Debug("creating message",
		slog.String("model", r.model),
		slog.Int("history_len", len(req.History)),
	)

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages:  messages,
	})
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, errors.New("empty response from Anthropic")
	}

	r.logger.Debug("message successful",
		slog.String("model", r.model),
		slog.Int("response_len", len(content)),
		slog.Int("input_tokens", int(resp.Usage.InputTokens)),
		slog.Int("output_tokens", int(resp.Usage.OutputTokens)),
	)

	return &Reply{Text: content, Type: "text"}, nil
}
