package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		in    string
		want  time.Time
		valid bool
	}{
		{"rfc5322", "Thu, 02 Jan 2025 10:00:00 +0000", want, true},
		{"offset", "Thu, 02 Jan 2025 12:00:00 +0200", want, true},
		{"no weekday", "2 Jan 2025 10:00:00 +0000", want, true},
		{"named zone", "Thu, 02 Jan 2025 10:00:00 GMT", want, true},
		{"comment", "Thu, 2 Jan 2025 05:00:00 -0500 (EST)", want, true},
		{"naive", "Thu, 02 Jan 2025 10:00:00", want, true},
		{"iso", "2025-01-02T10:00:00Z", want, true},
		{"date only", "2025-01-02", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"garbage", "yesterday-ish", now, false},
		{"empty", "  ", now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in, now)
			assert.Equal(t, tt.valid, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
