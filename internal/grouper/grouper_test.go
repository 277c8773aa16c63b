package grouper

import (
	"testing"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

func at(offsetMinutes int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offsetMinutes) * time.Minute)
}

func TestGroupByConversationID(t *testing.T) {
	msgs := []model.Message{
		{ID: "m1", ConversationID: "c1", ReceivedAt: at(0)},
		{ID: "m2", ConversationID: "c1", ReceivedAt: at(5)},
		{ID: "m3", ConversationID: "c2", ReceivedAt: at(1)},
	}

	convs := Group(msgs)
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].Key != "c1" {
		t.Errorf("expected first conversation key c1, got %s", convs[0].Key)
	}
	if got := convs[0].Representative().ID; got != "m2" {
		t.Errorf("expected representative m2 (latest), got %s", got)
	}
}

func TestGroupSingleMessageSynthesizesKey(t *testing.T) {
	msgs := []model.Message{{ID: "m1", ReceivedAt: at(0)}}

	convs := Group(msgs)
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if want := "single:m1"; convs[0].Key != want {
		t.Errorf("Key = %q, want %q", convs[0].Key, want)
	}
}

func TestRepresentativeTieBreaksByGreatestID(t *testing.T) {
	msgs := []model.Message{
		{ID: "a", ConversationID: "c1", ReceivedAt: at(0)},
		{ID: "z", ConversationID: "c1", ReceivedAt: at(0)},
		{ID: "m", ConversationID: "c1", ReceivedAt: at(0)},
	}

	convs := Group(msgs)
	if got := convs[0].Representative().ID; got != "z" {
		t.Errorf("expected tie-break to pick lexicographically greatest id z, got %s", got)
	}
}

func TestGroupPreservesFirstSeenConversationOrder(t *testing.T) {
	msgs := []model.Message{
		{ID: "m1", ConversationID: "c2", ReceivedAt: at(0)},
		{ID: "m2", ConversationID: "c1", ReceivedAt: at(0)},
		{ID: "m3", ConversationID: "c2", ReceivedAt: at(1)},
	}

	convs := Group(msgs)
	if len(convs) != 2 || convs[0].Key != "c2" || convs[1].Key != "c1" {
		t.Fatalf("expected order [c2, c1], got %v", []string{convs[0].Key, convs[1].Key})
	}
}
