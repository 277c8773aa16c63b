// Package grouper implements the Conversation Grouper (spec §4.C): a
// pure, streaming-safe grouping of Messages into Conversations.
package grouper

import (
	"sort"

	"github.com/triagekit/emailtriage/internal/model"
)

// Group partitions messages into conversations keyed by
// Message.EffectiveConversationID, preserving no particular input
// order requirement — the function is pure and safe to call
// incrementally as pages of messages stream in (spec §4.C
// "streaming-safe").
func Group(messages []model.Message) []model.Conversation {
	byKey := make(map[string][]model.Message)
	order := make([]string, 0)

	for _, m := range messages {
		key := m.EffectiveConversationID()
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], m)
	}

	conversations := make([]model.Conversation, 0, len(order))
	for _, key := range order {
		msgs := byKey[key]
		sortByRepresentativeOrder(msgs)
		conversations = append(conversations, model.Conversation{Key: key, Messages: msgs})
	}
	return conversations
}

// sortByRepresentativeOrder orders a conversation's messages so that
// Messages[0] is the representative: latest ReceivedAt first, ties
// broken by the lexicographically greatest id (spec §4.C).
func sortByRepresentativeOrder(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, tj := msgs[i].ReceivedAt, msgs[j].ReceivedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return msgs[i].ID > msgs[j].ID
	})
}
