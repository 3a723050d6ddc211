package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/mailcache/internal/model"
)

// GetSummary returns the cached summary for a message, or ErrNotFound.
func (s *SQLStore) GetSummary(
	ctx context.Context,
	userID, identity string,
) (*model.Summary, error) {
	var summary model.Summary
	err := s.db.GetContext(ctx, &summary, s.db.Rebind(`
		SELECT id, user_id, message_identity, text, created_at
		FROM summaries WHERE user_id = ? AND message_identity = ?`),
		userID, identity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summary for %s: %w", identity, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting summary for "+identity, err)
	}
	return &summary, nil
}

// SaveSummary stores a summary. Summaries are immutable: if one already
// exists for the message the call keeps the existing text.
func (s *SQLStore) SaveSummary(ctx context.Context, summary model.Summary) error {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO summaries (id, user_id, message_identity, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, message_identity) DO NOTHING`),
		summary.ID, summary.UserID, summary.MessageIdentity,
		summary.Text, timestamp(summary.CreatedAt),
	)
	if err != nil {
		return writeError("saving summary", summary.MessageIdentity, err)
	}
	return nil
}
