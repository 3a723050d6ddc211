package sync

import (
	"net/mail"
	"strings"
	"time"
)

// legacyLayouts are Date header shapes seen in the wild that
// net/mail.ParseDate rejects. Layouts without a zone are read as UTC.
var legacyLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a message Date header. It returns the instant in UTC
// and true, or now in UTC and false when no layout matches.
func ParseDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.UTC(), false
	}

	if t, err := mail.ParseDate(value); err == nil {
		return t.UTC(), true
	}

	// Drop a trailing comment such as "(UTC)" or "(PDT)".
	if i := strings.LastIndex(value, " ("); i > 0 && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[:i])
	}

	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return now.UTC(), false
}
