package model

import "time"

// Summary is the cached AI summary of a message. There is at most one
// per (user, message identity) and it is never regenerated.
type Summary struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	MessageIdentity string    `json:"message_identity" db:"message_identity"`
	Text            string    `json:"text" db:"text"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ReplyDraft records one reply generation. Every generate action
// appends a new row; sending flips WasSent and sets SentAt.
type ReplyDraft struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	MessageIdentity string     `json:"message_identity" db:"message_identity"`
	UserPrompt      string     `json:"user_prompt" db:"user_prompt"`
	GeneratedText   string     `json:"generated_text" db:"generated_text"`
	FinalText       string     `json:"final_text" db:"final_text"`
	WasSent         bool       `json:"was_sent" db:"was_sent"`
	SentAt          *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Analysis holds the uncached sentiment and action-item extraction
// for a message.
type Analysis struct {
	Sentiment   string `json:"sentiment"`
	ActionItems string `json:"action_items"`
}
