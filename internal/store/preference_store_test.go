package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
	"github.com/nhle/mailcache/tests/testutil"
)

func TestPreferences(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetPreference(ctx, "u1", model.PrefDefaultFilterDate)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetPreference(ctx, "u1", model.PrefDefaultFilterDate, "2025-07-01"))
	require.NoError(t, s.SetPreference(ctx, "u1", model.PrefDefaultFilterDate, "2025-07-05"))
	require.NoError(t, s.SetPreference(ctx, "u1", model.PrefSelectedCategories, "Inbox,Social"))
	require.NoError(t, s.SetPreference(ctx, "u2", model.PrefDefaultFilterDate, "2024-01-01"))

	got, err := s.GetPreference(ctx, "u1", model.PrefDefaultFilterDate)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-05", got)

	prefs, err := s.ListPreferences(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, model.PrefDefaultFilterDate, prefs[0].Key)
	assert.Equal(t, model.PrefSelectedCategories, prefs[1].Key)
	assert.Equal(t, "Inbox,Social", prefs[1].Value)
}

func TestSetPreferenceEmptyKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	assert.Error(t, s.SetPreference(context.Background(), "u1", "", "x"))
}

func TestStats(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.SeedMessage(t, s, "u1", "a", model.CategoryInbox, testutil.Date(2025, 7, 1))
	b := testutil.SeedMessage(t, s, "u1", "b", model.CategoryInbox, testutil.Date(2025, 7, 10))
	testutil.SeedMessage(t, s, "u1", "c", model.CategoryPromotions, testutil.Date(2025, 7, 11))
	testutil.SeedMessage(t, s, "u2", "d", model.CategoryInbox, testutil.Date(2025, 7, 11))

	require.NoError(t, s.SaveSummary(ctx, model.Summary{UserID: "u1", MessageIdentity: a.Identity, Text: "s"}))
	d1, err := s.CreateReplyDraft(ctx, model.ReplyDraft{UserID: "u1", MessageIdentity: b.Identity})
	require.NoError(t, err)
	_, err = s.CreateReplyDraft(ctx, model.ReplyDraft{UserID: "u1", MessageIdentity: b.Identity})
	require.NoError(t, err)
	require.NoError(t, s.MarkReplySent(ctx, "u1", d1.ID, "ok", testutil.Date(2025, 7, 12)))

	stats, err := s.UserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.UserStats{
		TotalMessages:     3,
		ProcessedMessages: 1,
		Summaries:         1,
		RepliesDrafted:    2,
		RepliesSent:       1,
	}, stats)

	counts, err := s.CategoryCounts(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{
		{Category: model.CategoryInbox, Count: 2},
		{Category: model.CategoryPromotions, Count: 1},
	}, counts)

	since := testutil.Date(2025, 7, 5)
	recent, err := s.CategoryCounts(ctx, "u1", &since)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{
		{Category: model.CategoryInbox, Count: 1},
		{Category: model.CategoryPromotions, Count: 1},
	}, recent)
}
