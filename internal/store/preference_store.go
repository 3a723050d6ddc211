package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/mailcache/internal/model"
)

// GetPreference returns the value stored under key, or ErrNotFound.
func (s *SQLStore) GetPreference(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(
		"SELECT value FROM user_preferences WHERE user_id = ? AND key = ?"),
		userID, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", dbError("getting preference "+key, err)
	}
	return value, nil
}

// SetPreference inserts or replaces the value stored under key.
func (s *SQLStore) SetPreference(ctx context.Context, userID, key, value string) error {
	if key == "" {
		return fmt.Errorf("preference key must not be empty")
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO user_preferences (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`),
		userID, key, value, timestamp(s.now()),
	)
	if err != nil {
		return dbError("setting preference "+key, err)
	}
	return nil
}

// ListPreferences returns every preference of a user ordered by key.
func (s *SQLStore) ListPreferences(
	ctx context.Context,
	userID string,
) ([]model.UserPreference, error) {
	prefs := []model.UserPreference{}
	err := s.db.SelectContext(ctx, &prefs, s.db.Rebind(`
		SELECT user_id, key, value, updated_at FROM user_preferences
		WHERE user_id = ? ORDER BY key`),
		userID,
	)
	if err != nil {
		return nil, dbError("listing preferences", err)
	}
	return prefs, nil
}
