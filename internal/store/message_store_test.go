package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
	"github.com/nhle/mailcache/tests/testutil"
)

func newMessage(userID, identity, subject string, receivedAt time.Time) model.Message {
	return model.Message{
		UserID:     userID,
		Identity:   identity,
		Sender:     "a@x.com",
		Recipient:  "me@example.com",
		Subject:    subject,
		Body:       "body of " + subject,
		ReceivedAt: receivedAt,
		Category:   model.CategoryInbox,
	}
}

func TestUpsertMessageCreatesThenUpdates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := newMessage("u1", "id-1", "Hi", testutil.Date(2025, 1, 2))

	created, err := s.UpsertMessage(ctx, msg)
	require.NoError(t, err)
	assert.True(t, created)

	msg.Subject = "Hi (edited)"
	msg.Category = model.CategoryUpdates
	created, err = s.UpsertMessage(ctx, msg)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetMessage(ctx, "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Hi (edited)", got.Subject)
	assert.Equal(t, model.CategoryUpdates, got.Category)
	assert.False(t, got.Processed)
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.ReceivedAt.Equal(testutil.Date(2025, 1, 2)))

	all, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertMessagePreservesProcessed(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := newMessage("u1", "id-1", "Hi", testutil.Date(2025, 1, 2))
	_, err := s.UpsertMessage(ctx, msg)
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessed(ctx, "u1", "id-1"))

	msg.Processed = false
	msg.Body = "refreshed"
	_, err = s.UpsertMessage(ctx, msg)
	require.NoError(t, err)

	got, err := s.GetMessage(ctx, "u1", "id-1")
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, "refreshed", got.Body)
}

func TestUpsertMessageDefaultsCategory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := newMessage("u1", "id-1", "Hi", testutil.Date(2025, 1, 2))
	msg.Category = ""
	_, err := s.UpsertMessage(ctx, msg)
	require.NoError(t, err)

	got, err := s.GetMessage(ctx, "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryInbox, got.Category)
}

func TestUpsertMessageRequiresKeys(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.UpsertMessage(context.Background(), model.Message{UserID: "u1"})
	assert.Error(t, err)
}

func TestIdentityIsScopedPerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, user := range []string{"u1", "u2"} {
		created, err := s.UpsertMessage(ctx, newMessage(user, "same", "Hi", testutil.Date(2025, 1, 2)))
		require.NoError(t, err)
		assert.True(t, created, "user %s", user)
	}
}

func TestGetMessageNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetMessage(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrUnavailable)
}

func TestListMessagesFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedMessage(t, s, "u1", "old inbox", model.CategoryInbox, testutil.Date(2025, 7, 1))
	testutil.SeedMessage(t, s, "u1", "new inbox", model.CategoryInbox, testutil.Date(2025, 7, 10))
	testutil.SeedMessage(t, s, "u1", "promo", model.CategoryPromotions, testutil.Date(2025, 7, 8))
	testutil.SeedMessage(t, s, "u2", "other user", model.CategoryInbox, testutil.Date(2025, 7, 9))

	subjects := func(msgs []model.Message) []string {
		out := make([]string, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, m.Subject)
		}
		return out
	}

	all, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new inbox", "promo", "old inbox"}, subjects(all))

	inbox := model.CategoryInbox
	byCategory, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1", Category: &inbox})
	require.NoError(t, err)
	assert.Equal(t, []string{"new inbox", "old inbox"}, subjects(byCategory))

	since := testutil.Date(2025, 7, 5)
	recent, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1", Since: &since})
	require.NoError(t, err)
	assert.Equal(t, []string{"new inbox", "promo"}, subjects(recent))

	limited, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"promo"}, subjects(limited))

	none, err := s.ListMessages(ctx, store.MessageFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListMessagesSinceIsInclusive(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedMessage(t, s, "u1", "at bound", model.CategoryInbox, testutil.Date(2025, 7, 5))

	since := testutil.Date(2025, 7, 5)
	got, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1", Since: &since})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListMessagesProcessedFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	done := testutil.SeedMessage(t, s, "u1", "done", model.CategoryInbox, testutil.Date(2025, 7, 1))
	testutil.SeedMessage(t, s, "u1", "todo", model.CategoryInbox, testutil.Date(2025, 7, 2))
	require.NoError(t, s.MarkProcessed(ctx, "u1", done.Identity))

	pending := false
	got, err := s.ListMessages(ctx, store.MessageFilter{UserID: "u1", Processed: &pending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "todo", got[0].Subject)
}

func TestMarkProcessedNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.MarkProcessed(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClosedStoreReportsUnavailable(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ctx := context.Background()

	_, err = s.ListMessages(ctx, store.MessageFilter{UserID: "u1"})
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.GetMessage(ctx, "u1", "id")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.False(t, errors.Is(err, store.ErrNotFound))

	_, err = s.UpsertMessage(ctx, newMessage("u1", "id", "Hi", time.Now()))
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.UpsertMessage(context.Background(), newMessage("u1", "id-1", "Hi", testutil.Date(2025, 1, 2)))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetMessage(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Subject)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open("mongo", "")
	assert.Error(t, err)
}
