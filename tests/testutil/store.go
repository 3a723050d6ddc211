package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/mailcache/internal/identity"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedMessage upserts a message for userID with the given subject,
// category and received time and returns it as stored.
func SeedMessage(
	t *testing.T,
	s store.Store,
	userID string,
	subject string,
	category model.Category,
	receivedAt time.Time,
) model.Message {
	t.Helper()

	ctx := context.Background()
	msg := model.Message{
		UserID:     userID,
		Identity:   identity.Assign("seed@example.com", subject, receivedAt.Format(time.RFC1123Z), subject),
		Sender:     "seed@example.com",
		Recipient:  "me@example.com",
		Subject:    subject,
		Body:       subject,
		ReceivedAt: receivedAt,
		Category:   category,
	}
	if _, err := s.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("seeding message %q: %v", subject, err)
	}

	stored, err := s.GetMessage(ctx, userID, msg.Identity)
	if err != nil {
		t.Fatalf("reading seeded message %q: %v", subject, err)
	}
	return *stored
}
