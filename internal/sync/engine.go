// Package sync reconciles a mail source against the message store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailcache/internal/identity"
	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
	"github.com/nhle/mailcache/internal/source"
	"github.com/nhle/mailcache/internal/store"
)

// defaultConcurrency bounds parallel folder fetches in SyncCategories.
const defaultConcurrency = 2

// Result counts what a sync did.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Add returns the sum of two results.
func (r Result) Add(o Result) Result {
	return Result{
		Created: r.Created + o.Created,
		Updated: r.Updated + o.Updated,
		Skipped: r.Skipped + o.Skipped,
	}
}

// Engine fetches from a Reader and upserts into a Store by identity.
type Engine struct {
	reader source.Reader
	store  store.Store
	log    *zap.Logger
	now    func() time.Time

	// Concurrency bounds the folders fetched at once by SyncCategories.
	Concurrency int
}

// NewEngine creates a sync engine.
func NewEngine(r source.Reader, s store.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		reader:      r,
		store:       s,
		log:         log,
		now:         time.Now,
		Concurrency: defaultConcurrency,
	}
}

// Sync fetches the records selected by filter and upserts them for the
// session's user.
//
// A source failure returns a zero Result and an error matching
// source.ErrUnavailable. A store failure stops the pass with an error
// matching store.ErrUnavailable; the returned Result counts the records
// committed before it.
func (e *Engine) Sync(ctx context.Context, sess session.Session, filter source.Filter) (Result, error) {
	if strings.TrimSpace(sess.UserID) == "" {
		return Result{}, fmt.Errorf("sync: user id is required")
	}
	filter.Category = filter.Category.OrDefault()

	fetched, err := e.fetch(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	return e.apply(ctx, sess.UserID, filter.Category, fetched)
}

// SyncCategories syncs every category of the session from since, keeping
// at most maxResults records per category. Folders are fetched concurrently;
// upserts run on the calling goroutine once every fetch has succeeded.
func (e *Engine) SyncCategories(
	ctx context.Context,
	sess session.Session,
	since time.Time,
	maxResults int,
) (Result, error) {
	if strings.TrimSpace(sess.UserID) == "" {
		return Result{}, fmt.Errorf("sync: user id is required")
	}

	categories := sess.Categories
	if len(categories) == 0 {
		categories = []model.Category{model.CategoryInbox}
	}

	fetched := make([]source.FetchResult, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	limit := e.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			res, err := e.fetch(gctx, source.Filter{
				Category:   category.OrDefault(),
				Since:      since,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}
			fetched[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var total Result
	for i, category := range categories {
		res, err := e.apply(ctx, sess.UserID, category.OrDefault(), fetched[i])
		total = total.Add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *Engine) fetch(ctx context.Context, filter source.Filter) (source.FetchResult, error) {
	fetched, err := e.reader.Fetch(ctx, filter)
	if err == nil {
		return fetched, nil
	}
	if !errors.Is(err, source.ErrUnavailable) {
		err = source.Unavailable(string(filter.Category), err)
	}
	return source.FetchResult{}, fmt.Errorf("fetching %s: %w", filter.Category, err)
}

// apply upserts one fetch result. Decode failures and records with no
// content to identify are skipped with a warning.
func (e *Engine) apply(
	ctx context.Context,
	userID string,
	category model.Category,
	fetched source.FetchResult,
) (Result, error) {
	var res Result

	for _, failure := range fetched.Failures {
		e.log.Warn("skipping undecodable message",
			zap.String("user", userID),
			zap.String("folder", failure.Folder),
			zap.Uint32("uid", failure.UID),
			zap.Error(failure.Err))
		res.Skipped++
	}

	for _, raw := range fetched.Messages {
		if isBlank(raw) {
			e.log.Warn("skipping empty message",
				zap.String("user", userID),
				zap.String("folder", raw.Folder),
				zap.Uint32("uid", raw.UID))
			res.Skipped++
			continue
		}

		receivedAt, ok := ParseDate(raw.Date, e.now())
		if !ok {
			e.log.Warn("unparseable message date, using current time",
				zap.String("user", userID),
				zap.String("date", raw.Date),
				zap.Uint32("uid", raw.UID))
		}

		msg := model.Message{
			UserID:     userID,
			Identity:   identity.AssignRaw(raw),
			Sender:     raw.Sender,
			Recipient:  raw.Recipient,
			Subject:    raw.Subject,
			Body:       raw.Body,
			ReceivedAt: receivedAt,
			Category:   category,
		}

		created, err := e.store.UpsertMessage(ctx, msg)
		if err != nil {
			return res, fmt.Errorf("syncing message %s: %w", msg.Identity, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	e.log.Debug("sync applied",
		zap.String("user", userID),
		zap.String("category", string(category)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped))

	return res, nil
}

func isBlank(raw model.RawMessage) bool {
	return strings.TrimSpace(raw.Sender) == "" &&
		strings.TrimSpace(raw.Subject) == "" &&
		strings.TrimSpace(raw.Date) == "" &&
		strings.TrimSpace(raw.Body) == ""
}
