package services

import (
	"fmt"
	"strings"

	"idealista-watcher/models"
)

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown protects free text from Telegram's legacy Markdown parser.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatListing renders the notification for a qualifying listing.
func FormatListing(l *models.Listing, class models.Classification) string {
	header := "🏡 *New Apartment Listing!*"
	if class == models.Highlighted {
		header = "🌟 *Ático alert! New Apartment Listing!*"
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "📍 %s\n\n", escapeMarkdown(l.Title))
	fmt.Fprintf(&b, "💰 %s\n", escapeMarkdown(l.Price))
	fmt.Fprintf(&b, "🛏️ %s\n", escapeMarkdown(l.Rooms))
	fmt.Fprintf(&b, "📐 %s\n", escapeMarkdown(l.Size))
	fmt.Fprintf(&b, "🏢 %s\n\n", escapeMarkdown(l.Floor))
	fmt.Fprintf(&b, "🔗 [Click here to view](%s)", l.Link)
	return b.String()
}

// FormatBlocked renders the one-off alert sent when the source starts
// refusing requests.
func FormatBlocked(code int) string {
	return fmt.Sprintf("⚠️ *Idealista is blocking the watcher* (HTTP %d)\n\n"+
		"Further block alerts are muted until a successful fetch.", code)
}
