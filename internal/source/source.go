package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/mailcache/internal/model"
)

// DefaultMaxResults caps a fetch when the filter does not say otherwise.
const DefaultMaxResults = 50

// ErrUnavailable reports that the mail server could not be reached or
// refused the session. A sync that sees it aborts.
var ErrUnavailable = errors.New("mail source unavailable")

// Unavailable wraps err so that it matches ErrUnavailable.
func Unavailable(server string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, server, err)
}

// AuthError indicates that authentication has failed for a mail source.
// It matches ErrUnavailable.
type AuthError struct {
	Server  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Server, e.Message)
}

// Unwrap makes an AuthError match ErrUnavailable.
func (e *AuthError) Unwrap() error {
	return ErrUnavailable
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// DecodeError reports a single record that could not be decoded. It is
// carried in FetchResult.Failures and never aborts a fetch.
type DecodeError struct {
	Folder string
	UID    uint32
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding message %s/%d: %v", e.Folder, e.UID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Filter selects the records a fetch returns.
type Filter struct {
	// Category picks the mailbox; empty means Inbox.
	Category model.Category

	// Since is an inclusive date lower bound. Zero means no bound.
	Since time.Time

	// MaxResults keeps only the newest records. Zero or less means
	// DefaultMaxResults.
	MaxResults int
}

// Limit returns the effective result cap.
func (f Filter) Limit() int {
	if f.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return f.MaxResults
}

// FetchResult holds the records decoded by a fetch and the ones that
// failed to decode.
type FetchResult struct {
	Messages []model.RawMessage
	Failures []*DecodeError

	// Unsupported is set when the category has no usable folder; the
	// result is then empty by definition.
	Unsupported bool
}

// Reader lists and decodes messages from a remote mailbox.
type Reader interface {
	Fetch(ctx context.Context, filter Filter) (FetchResult, error)
}
