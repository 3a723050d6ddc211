// Package view builds the category and date filtered message listing.
package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/session"
	"github.com/nhle/mailcache/internal/store"
)

// DefaultCap is the per-category limit used when the caller passes none.
const DefaultCap = 50

// Builder lists a user's cached messages grouped by category.
type Builder struct {
	store      store.Store
	loc        *time.Location
	defaultCap int
}

// NewBuilder creates a builder that compares calendar dates in loc.
// defaultCap applies when List is called with a cap of zero or less.
func NewBuilder(s store.Store, loc *time.Location, defaultCap int) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if defaultCap <= 0 {
		defaultCap = DefaultCap
	}
	return &Builder{store: s, loc: loc, defaultCap: defaultCap}
}

// List returns, for each requested category, the user's messages received
// on or after since's calendar date, newest first, at most capPerCategory
// each. Every requested category is a key of the result, with an empty
// slice when nothing matches. A zero since means no date bound.
func (b *Builder) List(
	ctx context.Context,
	userID string,
	since time.Time,
	categories []model.Category,
	capPerCategory int,
) (map[model.Category][]model.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("listing messages: user id is required")
	}
	if capPerCategory <= 0 {
		capPerCategory = b.defaultCap
	}

	var bound *time.Time
	if !since.IsZero() {
		day := session.DateIn(since, b.loc)
		bound = &day
	}

	out := make(map[model.Category][]model.Message, len(categories))
	for _, category := range categories {
		category = category.OrDefault()
		if _, done := out[category]; done {
			continue
		}

		msgs, err := b.store.ListMessages(ctx, store.MessageFilter{
			UserID:   userID,
			Category: &category,
			Since:    bound,
			Limit:    capPerCategory,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", category, err)
		}
		out[category] = msgs
	}

	return out, nil
}

// ListSession lists with the session's filters.
func (b *Builder) ListSession(ctx context.Context, sess session.Session) (map[model.Category][]model.Message, error) {
	return b.List(ctx, sess.UserID, sess.Since, sess.Categories, sess.CapPerCategory)
}
