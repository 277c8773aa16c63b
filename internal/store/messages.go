package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/triagekit/emailtriage/internal/model"
)

// SaveConversation caches a fetched Conversation and its member
// Messages, which back GetMessage, SenderDomain and ConfirmedExamples.
func (db *DB) SaveConversation(ctx context.Context, conv model.Conversation) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (key, representative_message_id, latest_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				representative_message_id = excluded.representative_message_id,
				latest_at = excluded.latest_at
		`, conv.Key, conv.Representative().ID, conv.LatestAt()); err != nil {
			return err
		}

		for _, msg := range conv.Messages {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO messages (
					id, conversation_key, subject, sender, recipients, received_at,
					body_text, body_html, has_attachments, importance, folder
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, msg.ID, conv.Key, msg.Subject, msg.Sender, strings.Join(msg.Recipients, ","),
				msg.ReceivedAt, msg.BodyText, msg.BodyHTML, msg.HasAttachments, msg.Importance, msg.Folder); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConversationIsCached reports whether a conversation key already has
// a cached row. The Scheduler's IsPageComplete hook in cli/run.go does
// not use it; that hook checks for a stored classification instead.
func (db *DB) ConversationIsCached(ctx context.Context, key string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE key = ?`, key).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetMessage fetches a single cached message by id.
func (db *DB) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	var recipients string
	err := db.QueryRowContext(ctx, `
		SELECT id, subject, sender, recipients, received_at, body_text, body_html,
		       has_attachments, importance, folder
		FROM messages WHERE id = ?
	`, id).Scan(&m.ID, &m.Subject, &m.Sender, &recipients, &m.ReceivedAt, &m.BodyText,
		&m.BodyHTML, &m.HasAttachments, &m.Importance, &m.Folder)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if recipients != "" {
		m.Recipients = strings.Split(recipients, ",")
	}
	return &m, nil
}
