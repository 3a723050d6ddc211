package email

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source"
)

// mailbox is the part of IMAPClient the reader needs.
type mailbox interface {
	FetchFolder(ctx context.Context, folder string, since time.Time, limit int) ([]FetchedMessage, error)
}

// Reader implements source.Reader over an IMAP mailbox. Categories are
// mapped to IMAP folders by configuration.
type Reader struct {
	mailbox mailbox
	folders map[model.Category]string
	log     *zap.Logger
}

var _ source.Reader = (*Reader)(nil)

// NewReader creates a reader over client. folders maps each category
// to the IMAP folder that holds it.
func NewReader(
	client *IMAPClient,
	folders map[model.Category]string,
	log *zap.Logger,
) *Reader {
	return newReader(client, folders, log)
}

func newReader(mb mailbox, folders map[model.Category]string, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{mailbox: mb, folders: folders, log: log}
}

// Fetch lists and decodes the newest messages of the filter's category.
// A category without a folder, or a folder the server will not open,
// yields an empty result and a warning rather than an error.
func (r *Reader) Fetch(ctx context.Context, filter source.Filter) (source.FetchResult, error) {
	category := filter.Category.OrDefault()

	folder := r.folders[category]
	if folder == "" {
		r.log.Warn("category has no mailbox folder, returning no messages",
			zap.String("category", string(category)))
		return source.FetchResult{Unsupported: true}, nil
	}

	fetched, err := r.mailbox.FetchFolder(ctx, folder, filter.Since, filter.Limit())
	if errors.Is(err, errMailboxUnavailable) {
		r.log.Warn("mailbox folder unavailable, returning no messages",
			zap.String("category", string(category)),
			zap.String("folder", folder),
			zap.Error(err))
		return source.FetchResult{Unsupported: true}, nil
	}
	if err != nil {
		return source.FetchResult{}, err
	}

	result := source.FetchResult{
		Messages: make([]model.RawMessage, 0, len(fetched)),
	}
	for _, f := range fetched {
		raw, err := decode(folder, f)
		if err != nil {
			result.Failures = append(result.Failures, err)
			continue
		}
		result.Messages = append(result.Messages, raw)
	}

	return result, nil
}

// decode turns a fetched message into the canonical record shape,
// filling headers missing from the body from the IMAP envelope.
func decode(folder string, f FetchedMessage) (model.RawMessage, *source.DecodeError) {
	decodeErr := func(err error) *source.DecodeError {
		return &source.DecodeError{Folder: folder, UID: f.Envelope.UID, Err: err}
	}

	if f.Err != nil {
		return model.RawMessage{}, decodeErr(f.Err)
	}

	parsed, err := parseMessage(f.Raw)
	if err != nil {
		return model.RawMessage{}, decodeErr(err)
	}

	raw := model.RawMessage{
		Sender:    parsed.From,
		Recipient: parsed.To,
		Subject:   parsed.Subject,
		Date:      parsed.Date,
		Body:      parsed.Body(),
		UID:       f.Envelope.UID,
		Folder:    folder,
	}
	if raw.Sender == "" {
		raw.Sender = f.Envelope.From
	}
	if raw.Subject == "" {
		raw.Subject = f.Envelope.Subject
	}
	if raw.Date == "" {
		raw.Date = formatDate(f.Envelope.Date)
	}

	return raw, nil
}
