// Package session holds the per-request view of a user's filters. A
// Session is built by the caller for each command or request and passed
// explicitly to the sync, view and drafting calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/store"
)

// DateLayout is the format of the default_filter_date preference.
const DateLayout = "2006-01-02"

// Preferences is the subset of the store a session reads and writes.
type Preferences interface {
	GetPreference(ctx context.Context, userID, key string) (string, error)
	SetPreference(ctx context.Context, userID, key, value string) error
}

// Session carries the filters of one user for one request.
type Session struct {
	UserID         string
	Since          time.Time
	Categories     []model.Category
	CapPerCategory int
}

// Defaults are used for any preference the user has not stored.
type Defaults struct {
	SinceDays      int
	Categories     []model.Category
	CapPerCategory int
	Location       *time.Location
	Now            time.Time
}

// Load builds a session for userID from stored preferences, falling back
// to d for anything unset. A stored date that does not parse is treated
// as unset.
func Load(ctx context.Context, prefs Preferences, userID string, d Defaults) (Session, error) {
	if strings.TrimSpace(userID) == "" {
		return Session{}, fmt.Errorf("loading session: user id is required")
	}

	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	now := d.Now
	if now.IsZero() {
		now = time.Now()
	}

	sess := Session{
		UserID:         userID,
		Since:          StartOfDay(now.AddDate(0, 0, -d.SinceDays), loc),
		Categories:     d.Categories,
		CapPerCategory: d.CapPerCategory,
	}
	if len(sess.Categories) == 0 {
		sess.Categories = []model.Category{model.CategoryInbox}
	}

	date, err := lookup(ctx, prefs, userID, model.PrefDefaultFilterDate)
	if err != nil {
		return Session{}, err
	}
	if date != "" {
		if t, err := time.ParseInLocation(DateLayout, date, loc); err == nil {
			sess.Since = t
		}
	}

	categories, err := lookup(ctx, prefs, userID, model.PrefSelectedCategories)
	if err != nil {
		return Session{}, err
	}
	if cs := model.ParseCategories(categories); len(cs) > 0 {
		sess.Categories = cs
	}

	return sess, nil
}

// Save stores the session's since-date and categories as the user's
// preferences.
func (s Session) Save(ctx context.Context, prefs Preferences) error {
	if err := prefs.SetPreference(ctx, s.UserID,
		model.PrefDefaultFilterDate, s.Since.Format(DateLayout)); err != nil {
		return fmt.Errorf("saving %s: %w", model.PrefDefaultFilterDate, err)
	}
	if err := prefs.SetPreference(ctx, s.UserID,
		model.PrefSelectedCategories, model.JoinCategories(s.Categories)); err != nil {
		return fmt.Errorf("saving %s: %w", model.PrefSelectedCategories, err)
	}
	return nil
}

// StartOfDay returns midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateIn returns midnight in loc of the calendar date t carries, without
// converting t to loc first.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func lookup(ctx context.Context, prefs Preferences, userID, key string) (string, error) {
	v, err := prefs.GetPreference(ctx, userID, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return v, nil
}
