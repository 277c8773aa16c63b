package model

import "time"

// Conversation is a transient, derived grouping of Messages sharing a
// conversation key. It is never persisted — it exists only for the
// duration of a pipeline run (spec §3 Lifecycle). Messages remain
// owned by the provider cache; Conversation holds no back-pointer.
type Conversation struct {
	Key      string    // conversation_id, or "single:<message_id>"
	Messages []Message // ordered by ReceivedAt desc; Messages[0] is the representative
}

// LatestAt returns the received_at of the representative message, or
// the zero time if the conversation has no messages.
func (c Conversation) LatestAt() time.Time {
	if len(c.Messages) == 0 {
		return time.Time{}
	}
	return c.Messages[0].ReceivedAt
}

// Representative returns the message whose classification propagates to
// all other messages in the conversation (spec invariant I1).
func (c Conversation) Representative() Message {
	return c.Messages[0]
}
