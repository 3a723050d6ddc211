package model

import "time"

// Well-known preference keys.
const (
	PrefDefaultFilterDate  = "default_filter_date"
	PrefSelectedCategories = "selected_categories"
)

// UserPreference is a per-user key/value setting.
type UserPreference struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserStats aggregates a user's activity across the cache.
type UserStats struct {
	TotalMessages     int `json:"total_messages" db:"total_messages"`
	ProcessedMessages int `json:"processed_messages" db:"processed_messages"`
	Summaries         int `json:"summaries" db:"summaries"`
	RepliesDrafted    int `json:"replies_drafted" db:"replies_drafted"`
	RepliesSent       int `json:"replies_sent" db:"replies_sent"`
}

// CategoryCount is the number of cached messages in one category.
type CategoryCount struct {
	Category Category `json:"category" db:"category"`
	Count    int      `json:"count" db:"count"`
}
