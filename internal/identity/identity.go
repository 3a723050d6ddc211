// Package identity derives the dedup key used to recognise the same
// mailbox message across repeated syncs.
//
// The key is a SHA-256 over sender, subject, date header and a prefix of
// the body. It is best-effort: two different messages with identical
// fields and body prefix collapse into one, and callers treat that as
// the same message fetched again.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/nhle/mailcache/internal/model"
)

// BodyPrefixLen is the number of body bytes folded into the hash.
const BodyPrefixLen = 256

// separator cannot appear in header text, so field boundaries stay
// unambiguous ("ab"+"c" and "a"+"bc" hash differently).
const separator = "\x1f"

// Assign returns the identity for a message with the given fields.
func Assign(sender, subject, date, body string) string {
	if len(body) > BodyPrefixLen {
		body = body[:BodyPrefixLen]
	}

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(sender)))
	h.Write([]byte(separator))
	h.Write([]byte(strings.TrimSpace(subject)))
	h.Write([]byte(separator))
	h.Write([]byte(strings.TrimSpace(date)))
	h.Write([]byte(separator))
	h.Write([]byte(body))

	return hex.EncodeToString(h.Sum(nil))
}

// AssignRaw returns the identity of a fetched record.
func AssignRaw(raw model.RawMessage) string {
	return Assign(raw.Sender, raw.Subject, raw.Date, raw.Body)
}
