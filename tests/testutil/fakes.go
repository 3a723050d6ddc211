package testutil

import (
	"context"
	"sync"

	"github.com/nhle/mailcache/internal/model"
	"github.com/nhle/mailcache/internal/source"
	"github.com/nhle/mailcache/internal/source/email"
)

// FakeReader is a source.Reader that serves canned results per category.
type FakeReader struct {
	mu      sync.Mutex
	Results map[model.Category]source.FetchResult
	Err     error
	Filters []source.Filter
}

// Fetch records the filter and returns the canned result for its
// category, or Err when set.
func (r *FakeReader) Fetch(_ context.Context, filter source.Filter) (source.FetchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Filters = append(r.Filters, filter)
	if r.Err != nil {
		return source.FetchResult{}, r.Err
	}
	return r.Results[filter.Category.OrDefault()], nil
}

// Calls returns how many fetches were made.
func (r *FakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Filters)
}

// DrafterCall records one call to FakeDrafter.
type DrafterCall struct {
	Mode     string
	Identity string
	Intent   string
}

// FakeDrafter returns Text, prefixed by the mode, for every call. Errs
// scripts failures by call order: Errs[i] is returned by the i-th call
// (a nil entry succeeds), and calls past the end of Errs return Err.
type FakeDrafter struct {
	mu    sync.Mutex
	Text  string
	Errs  []error
	Err   error
	calls []DrafterCall
}

func (d *FakeDrafter) call(mode string, msg model.Message, intent string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.calls)
	d.calls = append(d.calls, DrafterCall{Mode: mode, Identity: msg.Identity, Intent: intent})

	err := d.Err
	if n < len(d.Errs) {
		err = d.Errs[n]
	}
	if err != nil {
		return "", err
	}
	return mode + ": " + d.Text, nil
}

func (d *FakeDrafter) Summarize(_ context.Context, msg model.Message) (string, error) {
	return d.call("summary", msg, "")
}

func (d *FakeDrafter) Reply(_ context.Context, msg model.Message, intent string) (string, error) {
	return d.call("reply", msg, intent)
}

func (d *FakeDrafter) Sentiment(_ context.Context, msg model.Message) (string, error) {
	return d.call("sentiment", msg, "")
}

func (d *FakeDrafter) ActionItems(_ context.Context, msg model.Message) (string, error) {
	return d.call("actions", msg, "")
}

// Calls returns the recorded calls in order.
func (d *FakeDrafter) Calls() []DrafterCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrafterCall(nil), d.calls...)
}

// FakeSender records outgoing messages and fails with Err when set.
type FakeSender struct {
	mu   sync.Mutex
	Err  error
	Sent []email.OutgoingMessage
}

func (s *FakeSender) Send(_ context.Context, msg email.OutgoingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, msg)
	return nil
}
