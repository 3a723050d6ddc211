package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nhle/mailcache/internal/model"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a failure of the database itself. It is never
	// reported as an empty result.
	ErrUnavailable = errors.New("store unavailable")
)

// dbError wraps a driver error so that it matches ErrUnavailable while
// keeping the original error in the chain.
func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// writeError is dbError for inserts that reference a message: a foreign
// key violation means the message does not exist and matches ErrNotFound.
func writeError(op, identity string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: message %s: %w", op, identity, ErrNotFound)
	}
	return dbError(op, err)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY"))
	}
	return false
}

// MessageFilter controls filtering and pagination for message queries.
// UserID is required.
type MessageFilter struct {
	UserID    string
	Category  *model.Category
	Since     *time.Time // inclusive lower bound on received_at
	Processed *bool
	Limit     int
	Offset    int
}

// Store defines the persistence interface for cached messages, their
// summaries and reply drafts, and user preferences.
type Store interface {
	// === Messages ===

	UpsertMessage(ctx context.Context, msg model.Message) (created bool, err error)
	GetMessage(ctx context.Context, userID, identity string) (*model.Message, error)
	ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
	MarkProcessed(ctx context.Context, userID, identity string) error

	// === Summaries ===

	GetSummary(ctx context.Context, userID, identity string) (*model.Summary, error)
	SaveSummary(ctx context.Context, summary model.Summary) error

	// === Reply drafts ===

	CreateReplyDraft(ctx context.Context, draft model.ReplyDraft) (model.ReplyDraft, error)
	GetReplyDraft(ctx context.Context, userID, id string) (*model.ReplyDraft, error)
	ListReplyDrafts(ctx context.Context, userID, identity string) ([]model.ReplyDraft, error)
	MarkReplySent(ctx context.Context, userID, id, finalText string, sentAt time.Time) error

	// === Preferences ===

	GetPreference(ctx context.Context, userID, key string) (string, error)
	SetPreference(ctx context.Context, userID, key, value string) error
	ListPreferences(ctx context.Context, userID string) ([]model.UserPreference, error)

	// === Statistics ===

	UserStats(ctx context.Context, userID string) (model.UserStats, error)
	CategoryCounts(ctx context.Context, userID string, since *time.Time) ([]model.CategoryCount, error)

	Close() error
}
