package model

import "time"

// RawMessage is a decoded mailbox record as produced by a mail source,
// before it is assigned an identity. Date is the raw header value.
type RawMessage struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`

	// UID and Folder locate the record on the server; used for logging only.
	UID    uint32 `json:"uid,omitempty"`
	Folder string `json:"folder,omitempty"`
}

// Message is one cached email belonging to one user.
type Message struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Identity   string    `json:"identity" db:"identity"`
	Sender     string    `json:"sender" db:"sender"`
	Recipient  string    `json:"recipient" db:"recipient"`
	Subject    string    `json:"subject" db:"subject"`
	Body       string    `json:"body" db:"body"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
	Category   Category  `json:"category" db:"category"`

	// Processed becomes true once a reply was sent or the message was
	// marked handled. It never goes back to false.
	Processed bool `json:"processed" db:"processed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
