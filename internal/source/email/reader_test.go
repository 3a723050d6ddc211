package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source"
)

type fakeMailbox struct {
	messages map[string][]FetchedMessage
	err      error

	gotFolder string
	gotSince  time.Time
	gotLimit  int
}

func (f *fakeMailbox) FetchFolder(
	_ context.Context,
	folder string,
	since time.Time,
	limit int,
) ([]FetchedMessage, error) {
	f.gotFolder, f.gotSince, f.gotLimit = folder, since, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.messages[folder], nil
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

var folders = map[model.Category]string{
	model.CategoryInbox:      "INBOX",
	model.CategoryPromotions: "",
	"Newsletters":            "Lists/News",
}

func TestReaderFetchDecodes(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]FetchedMessage{
		"INBOX": {
			{
				Envelope: Envelope{UID: 1},
				Raw: crlf(`
From: a@x.com
To: me@example.com
Subject: Hi
Date: Thu, 02 Jan 2025 10:00:00 +0000

Hello
`),
			},
			{Envelope: Envelope{UID: 2}, Err: errors.New("truncated literal")},
			{Envelope: Envelope{UID: 3}, Raw: nil},
		},
	}}
	r := newReader(mb, folders, nil)

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := r.Fetch(context.Background(), source.Filter{Since: since, MaxResults: 10})
	require.NoError(t, err)

	assert.Equal(t, "INBOX", mb.gotFolder)
	assert.True(t, since.Equal(mb.gotSince))
	assert.Equal(t, 10, mb.gotLimit)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, model.RawMessage{
		Sender:    "a@x.com",
		Recipient: "me@example.com",
		Subject:   "Hi",
		Date:      "Thu, 02 Jan 2025 10:00:00 +0000",
		Body:      "Hello",
		UID:       1,
		Folder:    "INBOX",
	}, result.Messages[0])

	require.Len(t, result.Failures, 2)
	assert.Equal(t, uint32(2), result.Failures[0].UID)
	assert.Equal(t, uint32(3), result.Failures[1].UID)
	assert.False(t, result.Unsupported)
}

func TestReaderFillsFromEnvelope(t *testing.T) {
	date := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{messages: map[string][]FetchedMessage{
		"INBOX": {{
			Envelope: Envelope{UID: 9, From: "b@y.com", Subject: "From envelope", Date: date},
			Raw:      crlf("Content-Type: text/plain\n\nonly a body\n"),
		}},
	}}
	r := newReader(mb, folders, nil)

	result, err := r.Fetch(context.Background(), source.Filter{Category: model.CategoryInbox})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Equal(t, "b@y.com", msg.Sender)
	assert.Equal(t, "From envelope", msg.Subject)
	assert.Equal(t, date.Format(time.RFC1123Z), msg.Date)
	assert.Equal(t, source.DefaultMaxResults, mb.gotLimit)
}

func TestReaderUnsupportedCategoryDegrades(t *testing.T) {
	tests := []model.Category{model.CategoryPromotions, "Unknown"}
	for _, category := range tests {
		t.Run(string(category), func(t *testing.T) {
			log, logs := observedLogger()
			mb := &fakeMailbox{}
			r := newReader(mb, folders, log)

			result, err := r.Fetch(context.Background(), source.Filter{Category: category})
			require.NoError(t, err)
			assert.True(t, result.Unsupported)
			assert.Empty(t, result.Messages)
			assert.Empty(t, mb.gotFolder, "mailbox must not be contacted")
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestReaderMissingFolderDegrades(t *testing.T) {
	log, logs := observedLogger()
	mb := &fakeMailbox{err: errors.Join(errMailboxUnavailable, errors.New("NO [NONEXISTENT]"))}
	r := newReader(mb, folders, log)

	result, err := r.Fetch(context.Background(), source.Filter{Category: "Newsletters"})
	require.NoError(t, err)
	assert.True(t, result.Unsupported)
	assert.Equal(t, "Lists/News", mb.gotFolder)
	assert.Equal(t, 1, logs.FilterMessage("mailbox folder unavailable, returning no messages").Len())
}

func TestReaderSourceFailurePropagates(t *testing.T) {
	mb := &fakeMailbox{err: &source.AuthError{Server: "imap.example.com:993", Message: "denied"}}
	r := newReader(mb, folders, nil)

	_, err := r.Fetch(context.Background(), source.Filter{})
	assert.ErrorIs(t, err, source.ErrUnavailable)
	assert.True(t, source.IsAuthError(err))
}
