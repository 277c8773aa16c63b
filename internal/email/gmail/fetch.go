package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/triagekit/emailtriage/internal/email"
	"github.com/triagekit/emailtriage/internal/model"
)

// buildQuery constructs a Gmail search query from FetchOptions.
func buildQuery(opts email.FetchOptions) string {
	var parts []string

	if opts.After != nil {
		parts = append(parts, fmt.Sprintf("after:%s", opts.After.Format("2006/01/02")))
	}

	if opts.Query != "" {
		parts = append(parts, opts.Query)
	}

	return strings.Join(parts, " ")
}

// convertMessage converts a Gmail message into model.Message.
func convertMessage(msg *gmail.Message) model.Message {
	m := model.Message{
		ID:             msg.Id,
		ConversationID: msg.ThreadId,
		Importance:     model.ImportanceNormal,
	}

	var toAddresses []email.Address
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			m.Subject = header.Value
		case "from":
			m.Sender = email.ParseAddress(header.Value).String()
		case "to":
			toAddresses = email.ParseAddresses(header.Value)
		case "date":
			if t, err := parseDate(header.Value); err == nil {
				m.ReceivedAt = t
			}
		}
	}

	for _, addr := range toAddresses {
		m.Recipients = append(m.Recipients, addr.String())
	}

	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Unix(msg.InternalDate/1000, 0)
	}

	if containsLabel(msg.LabelIds, "IMPORTANT") {
		m.Importance = model.ImportanceHigh
	}
	m.Folder = primaryFolder(msg.LabelIds)

	m.BodyText = extractPartByMime(msg.Payload, "text/plain")
	m.BodyHTML = extractPartByMime(msg.Payload, "text/html")
	if m.BodyText == "" && m.BodyHTML != "" {
		m.BodyText = stripHTMLTags(m.BodyHTML)
	}

	m.HasAttachments = hasAttachments(msg.Payload)

	return m
}

// parseDate attempts to parse various date header formats.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// extractPartByMime recursively finds a part with the given MIME type.
func extractPartByMime(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, mimeType) {
		if part.Body != nil && part.Body.Data != "" {
			decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
			if err == nil {
				return string(decoded)
			}
		}
	}

	for _, subpart := range part.Parts {
		if result := extractPartByMime(subpart, mimeType); result != "" {
			return result
		}
	}

	return ""
}

// hasAttachments reports whether any part of the message carries a
// filename, the Gmail signal for a downloadable attachment.
func hasAttachments(part *gmail.MessagePart) bool {
	if part == nil {
		return false
	}
	if part.Filename != "" {
		return true
	}
	for _, subpart := range part.Parts {
		if hasAttachments(subpart) {
			return true
		}
	}
	return false
}

// stripHTMLTags removes HTML tags (basic implementation, plain-text
// fallback when a message has no text/plain part).
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	text := result.String()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", " ")

	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

// containsLabel checks if a label is present.
func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// primaryFolder picks the Gmail system label that best represents the
// message's folder (spec's Message.Folder).
func primaryFolder(labels []string) string {
	for _, candidate := range []string{"INBOX", "SENT", "DRAFT", "SPAM", "TRASH"} {
		if containsLabel(labels, candidate) {
			return strings.ToLower(candidate)
		}
	}
	if len(labels) > 0 {
		return strings.ToLower(labels[0])
	}
	return ""
}
