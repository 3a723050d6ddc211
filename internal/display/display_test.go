package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailcache/internal/model"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a b", Truncate("a\n  b", 10))
	assert.Equal(t, "héll…", Truncate("héllo world", 5))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", TimeAgo(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-50*time.Hour), now))
	assert.Equal(t, "Jun 1", TimeAgo(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Dec 24 2024", TimeAgo(time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "", TimeAgo(time.Time{}, now))
}

func TestViewListsEveryCategory(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)
	p.Now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	p.View(map[model.Category][]model.Message{
		model.CategoryInbox: {{
			Identity:   "0123456789abcdef",
			Sender:     "a@x.com",
			Subject:    "Hi",
			ReceivedAt: time.Date(2025, 7, 10, 11, 0, 0, 0, time.UTC),
		}},
		model.CategoryPromotions: {},
	}, []model.Category{model.CategoryInbox, model.CategoryPromotions})

	text := out.String()
	assert.Contains(t, text, "Inbox")
	assert.Contains(t, text, "01234567")
	assert.Contains(t, text, "a@x.com")
	assert.Contains(t, text, "1h ago")
	assert.Contains(t, text, "Promotions")
	assert.Contains(t, text, "no messages")
	assert.Less(t, strings.Index(text, "Inbox"), strings.Index(text, "Promotions"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "01234567", ShortID("0123456789"))
}
