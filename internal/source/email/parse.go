package email

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// parseMessage decodes a raw RFC 5322 message with go-message. Header
// values are decoded from RFC 2047 words; the Date header is kept as
// written. Parts in unknown charsets are skipped.
func parseMessage(raw []byte) (ParsedMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ParsedMessage{}, fmt.Errorf("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return ParsedMessage{}, fmt.Errorf("reading message header: %w", err)
	}
	defer mr.Close()

	var parsed ParsedMessage
	parsed.From = headerText(mr.Header, "From")
	parsed.To = headerText(mr.Header, "To")
	parsed.Subject = headerText(mr.Header, "Subject")
	parsed.Date = strings.TrimSpace(mr.Header.Get("Date"))
	parsed.MessageID, _ = mr.Header.MessageID()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if parsed.TextBody != "" || parsed.HTMLBody != "" {
				break
			}
			return parsed, fmt.Errorf("reading message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && parsed.TextBody == "":
			parsed.TextBody = strings.TrimSpace(string(body))
		case strings.HasPrefix(contentType, "text/html") && parsed.HTMLBody == "":
			parsed.HTMLBody = string(body)
		case contentType == "" && parsed.TextBody == "":
			parsed.TextBody = strings.TrimSpace(string(body))
		}
	}

	return parsed, nil
}

// headerText returns the decoded value of a header, or the raw value if
// it contains an undecodable encoded word.
func headerText(h mail.Header, key string) string {
	v, err := h.Text(key)
	if err != nil {
		return strings.TrimSpace(h.Get(key))
	}
	return strings.TrimSpace(v)
}

// formatDate renders an envelope date the way a Date header would.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC1123Z)
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
