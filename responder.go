package chatmem

import "context"

// ReplyRequest is what the service hands to the external responder:
// the current message, caller-supplied profile data, and the prior
// messages for context.
type ReplyRequest struct {
	// Message is the user message being responded to.
	Message string

	// Profile is opaque caller-supplied profile data.
	Profile Profile

	// History is the conversation so far, oldest first, excluding the
	// current message.
	History []Message
}

// Reply is the responder's output for one turn.
type Reply struct {
	// Text is the reply content.
	Text string

	// Type is an opaque response-type tag stored with the reply.
	Type string

	// Payload is optional structured data stored with the reply.
	Payload Metadata
}

// Responder produces a reply for one chat turn. Implementations are
// external collaborators: all retry, backoff and prompt concerns live
// behind this interface, outside the store.
type Responder interface {
	Respond(ctx context.Context, req ReplyRequest) (*Reply, error)
}

// StaticResponder replies with a fixed text. Useful for tests and
// offline runs.
type StaticResponder struct {
	// Text is the canned reply. Defaults to a generic greeting.
	Text string
}

// Respond returns the canned reply.
func (r *StaticResponder) Respond(_ context.Context, _ ReplyRequest) (*Reply, error) {
	text := r.Text
	if text == "" {
		text = "Hello! How can I help you?"
	}
	return &Reply{Text: text, Type: "text"}, nil
}
