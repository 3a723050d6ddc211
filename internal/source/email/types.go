package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	To        []string
	Date      time.Time
	UID       uint32
}

// FetchedMessage is one message as returned by the server: its envelope
// and the raw RFC 5322 bytes. Err is set when the server data for the
// message could not be collected.
type FetchedMessage struct {
	Envelope Envelope
	Raw      []byte
	Err      error
}

// ParsedMessage holds the decoded headers and body of a message.
type ParsedMessage struct {
	From      string
	To        string
	Subject   string
	Date      string
	MessageID string
	TextBody  string
	HTMLBody  string
}

// Body returns the plain-text body, falling back to stripped HTML.
func (p ParsedMessage) Body() string {
	if p.TextBody != "" {
		return p.TextBody
	}
	return stripHTML(p.HTMLBody)
}

// OutgoingMessage is a reply handed to the SMTP sender.
type OutgoingMessage struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string
}
