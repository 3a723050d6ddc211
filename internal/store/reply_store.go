package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailcache/internal/model"
)

const replyColumns = `id, user_id, message_identity, user_prompt, generated_text,
	final_text, was_sent, sent_at, created_at`

// CreateReplyDraft appends a reply draft. Drafts are a log: every call
// inserts a new row, even for a repeated prompt. Generates a UUID if ID
// is empty.
func (s *SQLStore) CreateReplyDraft(
	ctx context.Context,
	draft model.ReplyDraft,
) (model.ReplyDraft, error) {
	if strings.TrimSpace(draft.MessageIdentity) == "" {
		return model.ReplyDraft{}, fmt.Errorf("reply draft must reference a message")
	}
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	draft.CreatedAt = timestamp(s.now())
	draft.WasSent = false
	draft.SentAt = nil

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO reply_drafts (`+replyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		draft.ID, draft.UserID, draft.MessageIdentity, draft.UserPrompt,
		draft.GeneratedText, draft.FinalText, draft.WasSent, draft.SentAt,
		draft.CreatedAt,
	)
	if err != nil {
		return model.ReplyDraft{}, writeError("creating reply draft", draft.MessageIdentity, err)
	}
	return draft, nil
}

// GetReplyDraft retrieves a single draft by ID.
func (s *SQLStore) GetReplyDraft(
	ctx context.Context,
	userID, id string,
) (*model.ReplyDraft, error) {
	var draft model.ReplyDraft
	err := s.db.GetContext(ctx, &draft, s.db.Rebind(
		"SELECT "+replyColumns+" FROM reply_drafts WHERE user_id = ? AND id = ?"),
		userID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reply draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting reply draft "+id, err)
	}
	return &draft, nil
}

// ListReplyDrafts returns the drafts of one message, oldest first.
func (s *SQLStore) ListReplyDrafts(
	ctx context.Context,
	userID, identity string,
) ([]model.ReplyDraft, error) {
	drafts := []model.ReplyDraft{}
	err := s.db.SelectContext(ctx, &drafts, s.db.Rebind(`
		SELECT `+replyColumns+` FROM reply_drafts
		WHERE user_id = ? AND message_identity = ?
		ORDER BY created_at ASC, id ASC`),
		userID, identity,
	)
	if err != nil {
		return nil, dbError("listing reply drafts for "+identity, err)
	}
	return drafts, nil
}

// MarkReplySent records a successful send: the draft gets its final text,
// was_sent=true and sent_at, and the owning message becomes processed.
// Both updates commit together.
func (s *SQLStore) MarkReplySent(
	ctx context.Context,
	userID, id, finalText string,
	sentAt time.Time,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError("beginning transaction", err)
	}
	defer tx.Rollback()

	var identity string
	err = tx.GetContext(ctx, &identity, tx.Rebind(
		"SELECT message_identity FROM reply_drafts WHERE user_id = ? AND id = ?"),
		userID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reply draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return dbError("getting reply draft "+id, err)
	}

	sent := timestamp(sentAt)
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE reply_drafts SET was_sent = ?, sent_at = ?, final_text = ?
		WHERE user_id = ? AND id = ?`),
		true, sent, finalText, userID, id,
	); err != nil {
		return dbError("marking reply draft "+id+" sent", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE messages SET processed = ?, updated_at = ?
		WHERE user_id = ? AND identity = ?`),
		true, sent, userID, identity,
	); err != nil {
		return dbError("marking message "+identity+" processed", err)
	}

	if err := tx.Commit(); err != nil {
		return dbError("committing reply sent", err)
	}
	return nil
}
