package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/mailcache/internal/model"
)

const messageColumns = `id, user_id, identity, sender, recipient, subject, body,
	received_at, category, processed, created_at, updated_at`

// UpsertMessage inserts msg, or refreshes the mutable fields of the row
// already holding (msg.UserID, msg.Identity). The processed flag and any
// summaries or drafts of an existing row are left untouched. created
// reports whether a new row was inserted.
func (s *SQLStore) UpsertMessage(ctx context.Context, msg model.Message) (bool, error) {
	if msg.UserID == "" || msg.Identity == "" {
		return false, fmt.Errorf("upserting message: user id and identity are required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, dbError("beginning transaction", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.GetContext(ctx, &existing, tx.Rebind(
		"SELECT COUNT(*) FROM messages WHERE user_id = ? AND identity = ?"),
		msg.UserID, msg.Identity,
	)
	if err != nil {
		return false, dbError("checking message "+msg.Identity, err)
	}

	now := timestamp(s.now())
	const query = `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, identity) DO UPDATE SET
			sender      = excluded.sender,
			recipient   = excluded.recipient,
			subject     = excluded.subject,
			body        = excluded.body,
			received_at = excluded.received_at,
			category    = excluded.category,
			updated_at  = excluded.updated_at`

	_, err = tx.ExecContext(ctx, tx.Rebind(query),
		uuid.New().String(), msg.UserID, msg.Identity,
		msg.Sender, msg.Recipient, msg.Subject, msg.Body,
		timestamp(msg.ReceivedAt), string(msg.Category.OrDefault()), false,
		now, now,
	)
	if err != nil {
		return false, dbError("upserting message "+msg.Identity, err)
	}

	if err := tx.Commit(); err != nil {
		return false, dbError("committing message upsert", err)
	}

	return existing == 0, nil
}

// GetMessage retrieves a single message by user and identity.
func (s *SQLStore) GetMessage(
	ctx context.Context,
	userID, identity string,
) (*model.Message, error) {
	var msg model.Message
	err := s.db.GetContext(ctx, &msg, s.db.Rebind(
		"SELECT "+messageColumns+" FROM messages WHERE user_id = ? AND identity = ?"),
		userID, identity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %s: %w", identity, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting message "+identity, err)
	}
	return &msg, nil
}

// ListMessages returns the messages matching filter, newest first.
func (s *SQLStore) ListMessages(
	ctx context.Context,
	filter MessageFilter,
) ([]model.Message, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("listing messages: user id is required")
	}

	conditions := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.Since != nil {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Processed != nil {
		conditions = append(conditions, "processed = ?")
		args = append(args, *filter.Processed)
	}

	var qb strings.Builder
	qb.WriteString("SELECT " + messageColumns + " FROM messages WHERE ")
	qb.WriteString(strings.Join(conditions, " AND "))
	qb.WriteString(" ORDER BY received_at DESC, identity ASC")

	if filter.Limit > 0 {
		qb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			qb.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}

	msgs := []model.Message{}
	if err := s.db.SelectContext(ctx, &msgs, s.db.Rebind(qb.String()), args...); err != nil {
		return nil, dbError("listing messages", err)
	}
	return msgs, nil
}

// MarkProcessed sets processed=true on a message. Marking an already
// processed message is a no-op.
func (s *SQLStore) MarkProcessed(ctx context.Context, userID, identity string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE messages SET processed = ?, updated_at = ?
		WHERE user_id = ? AND identity = ?`),
		true, timestamp(s.now()), userID, identity,
	)
	if err != nil {
		return dbError("marking message "+identity+" processed", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbError("marking message "+identity+" processed", err)
	}
	if rows == 0 {
		return fmt.Errorf("message %s: %w", identity, ErrNotFound)
	}
	return nil
}
