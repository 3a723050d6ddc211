// Package display provides terminal formatting for mailcache output.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcache/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var (
	Muted    = lipgloss.NewStyle().Foreground(ColorGray)
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(ColorGreen)
	ErrStyle = lipgloss.NewStyle().Foreground(ColorRed)

	// HeaderStyle is used for category headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue)

	// PanelStyle wraps summaries and drafts.
	PanelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)
)

// Printer writes formatted output.
type Printer struct {
	Out io.Writer
	Err io.Writer
	Now func() time.Time
}

// New returns a printer writing to out and errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut, Now: time.Now}
}

// SuccessMsg prints a green checkmark and message.
func (p *Printer) SuccessMsg(format string, args ...any) {
	fmt.Fprintln(p.Out, Success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red cross and message to the error writer.
func (p *Printer) ErrorMsg(format string, args ...any) {
	fmt.Fprintln(p.Err, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Panel prints text inside a bordered box under a title.
func (p *Printer) Panel(title, text string) {
	fmt.Fprintln(p.Out, Bold.Render(title))
	fmt.Fprintln(p.Out, PanelStyle.Render(strings.TrimSpace(text)))
}

// View prints a category listing in the given category order.
func (p *Printer) View(view map[model.Category][]model.Message, order []model.Category) {
	for i, category := range order {
		msgs := view[category]
		if i > 0 {
			fmt.Fprintln(p.Out)
		}
		fmt.Fprintf(p.Out, "%s %s\n", HeaderStyle.Render(string(category)), Muted.Render(fmt.Sprintf("(%d)", len(msgs))))
		if len(msgs) == 0 {
			fmt.Fprintln(p.Out, Muted.Render("  no messages"))
			continue
		}
		for _, m := range msgs {
			fmt.Fprintln(p.Out, p.MessageLine(m))
		}
	}
}

// MessageLine renders one message as a single line.
func (p *Printer) MessageLine(m model.Message) string {
	mark := Muted.Render("·")
	if m.Processed {
		mark = Success.Render("✓")
	}
	return fmt.Sprintf("  %s %s  %-28s  %s  %s",
		mark,
		Muted.Render(ShortID(m.Identity)),
		Truncate(m.Sender, 28),
		Truncate(m.Subject, 50),
		Muted.Render(TimeAgo(m.ReceivedAt, p.Now())),
	)
}

// SentimentBadge colors a sentiment label.
func SentimentBadge(label string) string {
	style := lipgloss.NewStyle().Bold(true)
	switch strings.ToUpper(label) {
	case "POSITIVE":
		style = style.Foreground(ColorGreen)
	case "NEGATIVE":
		style = style.Foreground(ColorYellow)
	case "URGENT":
		style = style.Foreground(ColorRed)
	default:
		style = style.Foreground(ColorGray)
	}
	return style.Render(strings.ToUpper(label))
}

// ShortID returns the first eight characters of an identity.
func ShortID(identity string) string {
	if len(identity) <= 8 {
		return identity
	}
	return identity[:8]
}

// TimeAgo formats t relative to now.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2 2006")
	}
}

// Truncate collapses whitespace in s and shortens it to n runes, adding
// an ellipsis if needed.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:max(n, 0)])
	}
	return string([]rune(s)[:n-1]) + "…"
}
