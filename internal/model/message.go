// Package model defines the core data types of the email triage pipeline:
// messages, conversations, classifications, tasks, resolutions, and
// accuracy events. Types here are pure data — no I/O, no provider or
// LLM dependencies.
package model

import (
	"net/mail"
	"strings"
	"time"
)

// Importance mirrors the provider's priority flag on a Message.
type Importance string

const (
	ImportanceLow    Importance = "Low"
	ImportanceNormal Importance = "Normal"
	ImportanceHigh   Importance = "High"
)

// Message is an immutable record of a single email, as fetched from an
// EmailProvider. The provider cache is the owner of Messages; this
// package never mutates one after construction.
type Message struct {
	ID              string
	ConversationID  string // empty if the provider didn't supply one
	Subject         string
	Sender          string
	Recipients      []string
	ReceivedAt      time.Time
	BodyText        string
	BodyHTML        string
	HasAttachments  bool
	Importance      Importance
	Folder          string
}

// EffectiveConversationID returns ConversationID if set, otherwise the
// synthesized single-message key "single:<id>" per spec §3/§4.C.
func (m Message) EffectiveConversationID() string {
	if m.ConversationID != "" {
		return m.ConversationID
	}
	return "single:" + m.ID
}

// SenderDomain extracts the bare domain from Sender, lowercased, or ""
// if Sender does not parse as an address. Shared by
// internal/store.SenderDomain (DB-backed lookup by message id) and the
// Pipeline Scheduler's sender-domain pre-filter, both of which resolve
// the Accuracy Ledger's SuggestedFilters domains against a message.
func (m Message) SenderDomain() string {
	addr, err := mail.ParseAddress(m.Sender)
	if err != nil {
		return ""
	}
	at := strings.LastIndexByte(addr.Address, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(addr.Address[at+1:])
}
