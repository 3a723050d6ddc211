package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nhle/mailcache/internal/model"
)

// Body bytes sent per request kind.
const (
	summaryBodyLimit     = 1000
	replyBodyLimit       = 2000
	actionItemsBodyLimit = 1500
	sentimentBodyLimit   = 1000
)

// Sentiment labels returned by Client.Sentiment.
const (
	SentimentPositive = "POSITIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentNegative = "NEGATIVE"
	SentimentUrgent   = "URGENT"
)

const summarySystem = "You summarize emails. Reply with two or three plain sentences " +
	"covering who wrote, what they want and any deadline. No preamble."

const replySystem = "You write email replies on behalf of the recipient. " +
	"Follow the user's instructions, match the tone of the original, " +
	"and return only the reply body without a subject line or signature placeholder."

const sentimentSystem = "Classify the sentiment of the email. Answer with exactly one word: " +
	SentimentPositive + ", " + SentimentNeutral + ", " + SentimentNegative + " or " + SentimentUrgent + "."

const actionItemsSystem = "List the concrete actions the email asks of its recipient, " +
	"one per line starting with \"- \". Answer \"- none\" if there are none."

// messagePrompt renders msg for the model, keeping at most limit bytes of
// the body.
func messagePrompt(msg model.Message, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\n", msg.Sender)
	fmt.Fprintf(&sb, "Subject: %s\n\n", msg.Subject)
	sb.WriteString(truncate(msg.Body, limit))
	return sb.String()
}

func replyPrompt(msg model.Message, intent string) string {
	var sb strings.Builder
	sb.WriteString(messagePrompt(msg, replyBodyLimit))
	sb.WriteString("\n\n---\nInstructions for the reply: ")
	if strings.TrimSpace(intent) == "" {
		sb.WriteString("write a short, polite acknowledgement.")
	} else {
		sb.WriteString(strings.TrimSpace(intent))
	}
	return sb.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// normalizeSentiment picks the first known label in the model output, or
// SentimentNeutral when there is none.
func normalizeSentiment(text string) string {
	upper := strings.ToUpper(text)
	best, bestAt := SentimentNeutral, -1
	for _, label := range []string{SentimentUrgent, SentimentNegative, SentimentPositive, SentimentNeutral} {
		if i := strings.Index(upper, label); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = label, i
		}
	}
	return best
}
