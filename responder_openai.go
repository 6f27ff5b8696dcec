package chatmem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIResponder is a thin pass-through responder backed by the OpenAI
// chat completion API. It forwards the conversation context verbatim;
// prompt construction beyond that is not its concern.
type OpenAIResponder struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIResponder creates an OpenAI-backed responder.
func NewOpenAIResponder(apiKey, model string, logger *slog.Logger) (*OpenAIResponder, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIResponder{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger.With(slog.String("component", "chatmem.responder.openai")),
	}, nil
}

// Respond sends the conversation to OpenAI and returns the completion.
func (r *OpenAIResponder) Respond(ctx context.Context, req ReplyRequest) (*Reply, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	r.logger.Debug("creating chat completion",
		slog.String("model", r.model),
		slog.Int("history_len", len(req.History)),
		slog.Int("user_message_len", len(req.Message)),
	)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, errors.New("empty response from OpenAI")
	}

	r.logger.Debug("chat completion successful",
		slog.String("model", r.model),
		slog.Int("response_len", len(content)),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &Reply{Text: content, Type: "text"}, nil
}

func openAIRole(role Role) string {
	if role == RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
