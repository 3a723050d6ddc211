package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
	"github.com/nhle/mailcache/tests/testutil"
)

func TestSummaryCache(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	msg := testutil.SeedMessage(t, s, "u1", "Hi", model.CategoryInbox, testutil.Date(2025, 1, 2))

	_, err := s.GetSummary(ctx, "u1", msg.Identity)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveSummary(ctx, model.Summary{
		UserID: "u1", MessageIdentity: msg.Identity, Text: "first",
	}))
	require.NoError(t, s.SaveSummary(ctx, model.Summary{
		UserID: "u1", MessageIdentity: msg.Identity, Text: "second",
	}))

	got, err := s.GetSummary(ctx, "u1", msg.Identity)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSummaryRequiresMessage(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.SaveSummary(context.Background(), model.Summary{
		UserID: "u1", MessageIdentity: "ghost", Text: "orphan",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrUnavailable)
}

func TestReplyDraftsAreAppended(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	msg := testutil.SeedMessage(t, s, "u1", "Hi", model.CategoryInbox, testutil.Date(2025, 1, 2))

	for i := 0; i < 2; i++ {
		d, err := s.CreateReplyDraft(ctx, model.ReplyDraft{
			UserID:          "u1",
			MessageIdentity: msg.Identity,
			UserPrompt:      "say yes",
			GeneratedText:   "Yes.",
			FinalText:       "Yes.",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, d.ID)
		assert.False(t, d.WasSent)
	}

	drafts, err := s.ListReplyDrafts(ctx, "u1", msg.Identity)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.NotEqual(t, drafts[0].ID, drafts[1].ID)
	assert.Equal(t, "say yes", drafts[1].UserPrompt)
	assert.Nil(t, drafts[0].SentAt)
}

func TestCreateReplyDraftRequiresMessage(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.CreateReplyDraft(context.Background(), model.ReplyDraft{UserID: "u1"})
	assert.Error(t, err)

	_, err = s.CreateReplyDraft(context.Background(), model.ReplyDraft{
		UserID: "u1", MessageIdentity: "ghost", UserPrompt: "hi", GeneratedText: "Hi.",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrUnavailable)
}

func TestMarkReplySent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	msg := testutil.SeedMessage(t, s, "u1", "Hi", model.CategoryInbox, testutil.Date(2025, 1, 2))

	draft, err := s.CreateReplyDraft(ctx, model.ReplyDraft{
		UserID: "u1", MessageIdentity: msg.Identity,
		UserPrompt: "decline", GeneratedText: "No thanks.", FinalText: "No thanks.",
	})
	require.NoError(t, err)

	sentAt := time.Date(2025, 1, 3, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.MarkReplySent(ctx, "u1", draft.ID, "No thanks, edited.", sentAt))

	got, err := s.GetReplyDraft(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.True(t, got.WasSent)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(sentAt))
	assert.Equal(t, "No thanks, edited.", got.FinalText)
	assert.Equal(t, "No thanks.", got.GeneratedText)

	updated, err := s.GetMessage(ctx, "u1", msg.Identity)
	require.NoError(t, err)
	assert.True(t, updated.Processed)
}

func TestMarkReplySentUnknownDraft(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.MarkReplySent(context.Background(), "u1", "missing", "x", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetReplyDraftOtherUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	msg := testutil.SeedMessage(t, s, "u1", "Hi", model.CategoryInbox, testutil.Date(2025, 1, 2))

	draft, err := s.CreateReplyDraft(ctx, model.ReplyDraft{UserID: "u1", MessageIdentity: msg.Identity})
	require.NoError(t, err)

	_, err = s.GetReplyDraft(ctx, "u2", draft.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
