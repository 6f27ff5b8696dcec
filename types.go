package chatmem

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the responder.
	RoleAssistant Role = "assistant"
)

// valid reports whether the role is one of the known roles.
func (r Role) valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Metadata is an open bag of caller-supplied message data
// (intent classification, response-type tag, structured payload).
// The store carries it opaquely and never interprets it.
type Metadata map[string]any

// Message is a single entry in a conversation.
type Message struct {
	// ID uniquely identifies the message within its conversation.
	ID string `json:"id"`

	// Role is "user" or "assistant".
	Role Role `json:"role"`

	// Content is the message text. Always non-empty.
	Content string `json:"content"`

	// Metadata holds additional message data.
	Metadata Metadata `json:"metadata,omitempty"`

	// CreatedAt is when the message was appended.
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is an ordered, bounded sequence of messages with a title
// and activity timestamps. A conversation belongs to exactly one tenant
// for its lifetime.
type Conversation struct {
	// ID uniquely identifies the conversation within its tenant.
	ID string `json:"id"`

	// Title is a human-readable label derived from the first user message.
	Title string `json:"title"`

	// Messages are the retained messages in append order.
	Messages []Message `json:"messages"`

	// MessageCount equals len(Messages) after trimming.
	MessageCount int `json:"messageCount"`

	// CreatedAt is when the conversation was created. Immutable.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is bumped on every append and title change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationSummary is the listing view of a conversation, used by the
// sidebar-style listing. It carries no message bodies beyond a short
// preview of the most recent one.
type ConversationSummary struct {
	// ID uniquely identifies the conversation within its tenant.
	ID string `json:"id"`

	// Title is the conversation title.
	Title string `json:"title"`

	// MessageCount is the number of retained messages.
	MessageCount int `json:"messageCount"`

	// Preview is the last message's content truncated for display.
	Preview string `json:"preview"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the conversation was last active.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats holds aggregate counts across the whole store.
type Stats struct {
	// TenantCount is the number of tenant partitions.
	TenantCount int `json:"tenantCount"`

	// ConversationCount is the total number of conversations.
	ConversationCount int `json:"conversationCount"`

	// MessageCount is the total number of retained messages.
	MessageCount int `json:"messageCount"`

	// AvgConversationsPerTenant is rounded to the nearest integer.
	AvgConversationsPerTenant int `json:"avgConversationsPerTenant"`

	// AvgMessagesPerConversation is rounded to the nearest integer.
	AvgMessagesPerConversation int `json:"avgMessagesPerConversation"`
}

// Profile holds caller-supplied profile data passed through to the
// responder (e.g., locale, displayName, plan). The store never reads it.
type Profile map[string]any

// String returns a string value from the profile with a default.
func (p Profile) String(key, defaultValue string) string {
	if p == nil {
		return defaultValue
	}
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultValue
}

// NewConversationID generates a new conversation ID.
func NewConversationID() string {
	return uuid.New().String()
}

// NewMessageID generates a new message ID.
func NewMessageID() string {
	return uuid.New().String()
}
