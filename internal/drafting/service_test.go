package drafting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcache/internal/drafting"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source/email"
	"github.com/nhle/mailcache/internal/store"
	"github.com/nhle/mailcache/tests/testutil"
)

var (
	_ drafting.Drafter = (*testutil.FakeDrafter)(nil)
	_ drafting.Sender  = (*testutil.FakeSender)(nil)
	_ drafting.Sender  = (*email.SMTPSender)(nil)
)

type fixture struct {
	store   *store.SQLStore
	drafter *testutil.FakeDrafter
	sender  *testutil.FakeSender
	svc     *drafting.Service
	msg     model.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   testutil.NewTestStore(t),
		drafter: &testutil.FakeDrafter{Text: "generated"},
		sender:  &testutil.FakeSender{},
	}
	f.svc = drafting.NewService(f.store, f.drafter, f.sender, nil)
	f.msg = testutil.SeedMessage(t, f.store, "u1", "Lunch?", model.CategoryInbox, testutil.Date(2025, 1, 2))
	return f
}

func TestSummaryIsCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.drafter.Errs = []error{nil, drafting.ErrUnavailable}

	first, err := f.svc.GetOrCreateSummary(ctx, "u1", f.msg)
	require.NoError(t, err)
	assert.Equal(t, "summary: generated", first)

	second, err := f.svc.GetOrCreateSummary(ctx, "u1", f.msg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.drafter.Calls(), 1)
}

func TestSummaryErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []error{drafting.ErrUnavailable, drafting.ErrRateLimited, drafting.ErrAuth} {
		t.Run(kind.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.drafter.Errs = []error{kind}

			_, err := f.svc.GetOrCreateSummary(ctx, "u1", f.msg)
			assert.ErrorIs(t, err, kind)

			_, err = f.store.GetSummary(ctx, "u1", f.msg.Identity)
			assert.ErrorIs(t, err, store.ErrNotFound)

			text, err := f.svc.GetOrCreateSummary(ctx, "u1", f.msg)
			require.NoError(t, err)
			assert.Equal(t, "summary: generated", text)
			assert.Len(t, f.drafter.Calls(), 2)
		})
	}
}

func TestSummaryRejectsEmptyText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc = drafting.NewService(f.store, emptyDrafter{f.drafter}, f.sender, nil)

	_, err := f.svc.GetOrCreateSummary(ctx, "u1", f.msg)
	assert.ErrorIs(t, err, drafting.ErrUnavailable)

	_, err = f.store.GetSummary(ctx, "u1", f.msg.Identity)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type emptyDrafter struct{ *testutil.FakeDrafter }

func (emptyDrafter) Summarize(context.Context, model.Message) (string, error) { return "  ", nil }

func TestGenerateDraftAppends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d1, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "say yes")
	require.NoError(t, err)
	d2, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "say yes")
	require.NoError(t, err)

	assert.NotEqual(t, d1.ID, d2.ID)
	assert.Equal(t, "say yes", d1.UserPrompt)
	assert.Equal(t, "reply: generated", d1.GeneratedText)
	assert.Equal(t, d1.GeneratedText, d1.FinalText)
	assert.False(t, d1.WasSent)

	drafts, err := f.store.ListReplyDrafts(ctx, "u1", f.msg.Identity)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	calls := f.drafter.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, testutil.DrafterCall{Mode: "reply", Identity: f.msg.Identity, Intent: "say yes"}, calls[0])
}

func TestGenerateDraftError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.drafter.Err = drafting.ErrRateLimited

	_, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "decline")
	assert.ErrorIs(t, err, drafting.ErrRateLimited)

	drafts, err := f.store.ListReplyDrafts(ctx, "u1", f.msg.Identity)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestSendDraftSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "accept")
	require.NoError(t, err)

	require.NoError(t, f.svc.SendDraft(ctx, "u1", draft.ID, "Sure, noon works."))

	require.Len(t, f.sender.Sent, 1)
	assert.Equal(t, email.OutgoingMessage{
		To:      f.msg.Sender,
		Subject: "Re: Lunch?",
		Body:    "Sure, noon works.",
	}, f.sender.Sent[0])

	sent, err := f.store.GetReplyDraft(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.True(t, sent.WasSent)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, "Sure, noon works.", sent.FinalText)

	msg, err := f.store.GetMessage(ctx, "u1", f.msg.Identity)
	require.NoError(t, err)
	assert.True(t, msg.Processed)

	err = f.svc.SendDraft(ctx, "u1", draft.ID, "")
	assert.ErrorIs(t, err, drafting.ErrAlreadySent)
	assert.Len(t, f.sender.Sent, 1)
}

func TestSendDraftUsesDraftText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "accept")
	require.NoError(t, err)
	require.NoError(t, f.svc.SendDraft(ctx, "u1", draft.ID, ""))

	require.Len(t, f.sender.Sent, 1)
	assert.Equal(t, "reply: generated", f.sender.Sent[0].Body)
}

func TestSendDraftFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sender.Err = errors.New("550 mailbox unavailable")

	draft, err := f.svc.GenerateDraft(ctx, "u1", f.msg, "accept")
	require.NoError(t, err)

	err = f.svc.SendDraft(ctx, "u1", draft.ID, "edited")
	assert.ErrorIs(t, err, drafting.ErrSendFailed)

	got, err := f.store.GetReplyDraft(ctx, "u1", draft.ID)
	require.NoError(t, err)
	assert.False(t, got.WasSent)
	assert.Nil(t, got.SentAt)
	assert.Equal(t, "reply: generated", got.FinalText)

	msg, err := f.store.GetMessage(ctx, "u1", f.msg.Identity)
	require.NoError(t, err)
	assert.False(t, msg.Processed)
}

func TestSendDraftWithoutSender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := drafting.NewService(f.store, f.drafter, nil, nil)

	draft, err := svc.GenerateDraft(ctx, "u1", f.msg, "accept")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SendDraft(ctx, "u1", draft.ID, ""), drafting.ErrSendFailed)
}

func TestSendDraftNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SendDraft(context.Background(), "u1", "missing", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkHandled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.MarkHandled(ctx, "u1", f.msg.Identity))
	msg, err := f.store.GetMessage(ctx, "u1", f.msg.Identity)
	require.NoError(t, err)
	assert.True(t, msg.Processed)

	assert.ErrorIs(t, f.svc.MarkHandled(ctx, "u1", "nope"), store.ErrNotFound)
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.svc.Analyze(ctx, "u1", f.msg)
	require.NoError(t, err)
	assert.Equal(t, model.Analysis{
		Sentiment:   "sentiment: generated",
		ActionItems: "actions: generated",
	}, got)

	f.drafter.Err = drafting.ErrAuth
	_, err = f.svc.Analyze(ctx, "u1", f.msg)
	assert.ErrorIs(t, err, drafting.ErrAuth)
}
