package drafting

import "errors"

// Drafting service failures. They are returned to the caller as is and
// never stored in place of generated text.
var (
	ErrUnavailable = errors.New("drafting service unavailable")
	ErrRateLimited = errors.New("drafting service rate limited")
	ErrAuth        = errors.New("drafting service rejected credentials")
)

// ErrSendFailed wraps a Sender failure. The draft stays unsent.
var ErrSendFailed = errors.New("sending reply failed")

// ErrAlreadySent is returned when sending a draft that was already sent.
var ErrAlreadySent = errors.New("reply draft already sent")
