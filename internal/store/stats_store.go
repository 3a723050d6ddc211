package store

import (
	"context"
	"strings"
	"time"

	"github.com/nhle/mailcache/internal/model"
)

// UserStats counts a user's cached messages, summaries and replies.
func (s *SQLStore) UserStats(ctx context.Context, userID string) (model.UserStats, error) {
	var stats model.UserStats
	err := s.db.GetContext(ctx, &stats, s.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM messages WHERE user_id = ?) AS total_messages,
			(SELECT COUNT(*) FROM messages WHERE user_id = ? AND processed = ?) AS processed_messages,
			(SELECT COUNT(*) FROM summaries WHERE user_id = ?) AS summaries,
			(SELECT COUNT(*) FROM reply_drafts WHERE user_id = ?) AS replies_drafted,
			(SELECT COUNT(*) FROM reply_drafts WHERE user_id = ? AND was_sent = ?) AS replies_sent`),
		userID, userID, true, userID, userID, userID, true,
	)
	if err != nil {
		return model.UserStats{}, dbError("computing user stats", err)
	}
	return stats, nil
}

// CategoryCounts returns the number of messages per category, optionally
// restricted to messages received at or after since.
func (s *SQLStore) CategoryCounts(
	ctx context.Context,
	userID string,
	since *time.Time,
) ([]model.CategoryCount, error) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}
	if since != nil {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, since.UTC())
	}

	query := "SELECT category, COUNT(*) AS count FROM messages WHERE " +
		strings.Join(conditions, " AND ") +
		" GROUP BY category ORDER BY category"

	counts := []model.CategoryCount{}
	if err := s.db.SelectContext(ctx, &counts, s.db.Rebind(query), args...); err != nil {
		return nil, dbError("counting messages per category", err)
	}
	return counts, nil
}
