package chatmem

import (
	"context"
	"fmt"
	"log/slog"
)

// ChatRequest is one turn of a conversation as submitted by the caller.
type ChatRequest struct {
	// UserID is the tenant the conversation belongs to.
	UserID string

	// ConversationID links the turn to an existing conversation.
	// If empty, a new conversation is created.
	ConversationID string

	// Message is the user's input.
	Message string

	// Profile is caller-supplied profile data handed to the responder.
	Profile Profile
}

// ChatResult is the outcome of processing one turn.
type ChatResult struct {
	// ConversationID identifies the conversation, freshly generated for
	// new conversations.
	ConversationID string

	// UserMessage is the stored user message.
	UserMessage *Message

	// Reply is the stored assistant message.
	Reply *Message

	// ResponseType is the responder's opaque response-type tag.
	ResponseType string
}

// ProcessChatFn processes one chat turn against the store.
type ProcessChatFn func(ctx context.Context, req ChatRequest) (*ChatResult, error)

// NewChatService wires the store and the external responder into the
// chat processing function: append the user message, hand the prior
// messages to the responder, append the reply. A responder failure is
// surfaced as ErrProcessingFailed and leaves the user's message in
// place; the store is never corrupted by a collaborator failure.
func NewChatService(store *Store, responder Responder, logger *slog.Logger) ProcessChatFn {
	logger = logger.With(slog.String("component", "chatmem.service"))

	return func(ctx context.Context, req ChatRequest) (*ChatResult, error) {
		if req.UserID == "" {
			return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
		}
		if req.Message == "" {
			return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
		}

		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = store.newID()
		}

		userMsg, err := store.AppendMessage(req.UserID, conversationID, RoleUser, req.Message, nil)
		if err != nil {
			return nil, err
		}

		conv, err := store.GetConversation(req.UserID, conversationID)
		if err != nil {
			// Trimming cannot remove the message we just appended, so
			// the conversation must exist here.
			return nil, fmt.Errorf("failed to read back conversation: %w", err)
		}

		// Everything before the message just appended is responder context.
		history := conv.Messages[:len(conv.Messages)-1]

		reply, err := responder.Respond(ctx, ReplyRequest{
			Message: req.Message,
			Profile: req.Profile,
			History: history,
		})
		if err != nil {
			logger.Error("responder failed",
				slog.String("user_id", req.UserID),
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
		}

		metadata := cloneMetadata(reply.Payload)
		if metadata == nil {
			metadata = Metadata{}
		}
		if reply.Type != "" {
			metadata["responseType"] = reply.Type
		}

		assistantMsg, err := store.AppendMessage(req.UserID, conversationID, RoleAssistant, reply.Text, metadata)
		if err != nil {
			// The reply was already produced; return it even if storing
			// the assistant message failed.
			logger.Warn("failed to store assistant message",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
		}

		return &ChatResult{
			ConversationID: conversationID,
			UserMessage:    userMsg,
			Reply:          assistantMsg,
			ResponseType:   reply.Type,
		}, nil
	}
}
