package chatmem

import "errors"

var (
	// ErrInvalidArgument indicates a missing or empty required identifier
	// or content. Always surfaced to the caller, never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConversationNotFound indicates the conversation was not found
	// for the given tenant.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrProcessingFailed indicates the external responder failed. The
	// stored conversation state is not affected.
	ErrProcessingFailed = errors.New("processing failed")
)
