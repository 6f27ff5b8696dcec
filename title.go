package chatmem

import (
	"strings"
	"unicode"
)

const (
	// PlaceholderTitle is used when title derivation yields nothing.
	PlaceholderTitle = "New Chat"

	maxTitleLength   = 40
	maxPreviewLength = 50
)

// DeriveTitle turns a seed text into a conversation title: strips
// everything that is not alphanumeric or whitespace, trims surrounding
// whitespace and truncates to 40 characters. An empty result falls back
// to PlaceholderTitle.
func DeriveTitle(seed string) string {
	var b strings.Builder
	for _, r := range seed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	title := strings.TrimSpace(b.String())
	title = truncate(title, maxTitleLength)
	if title == "" {
		return PlaceholderTitle
	}
	return title
}

// previewText returns a short listing preview of a message body.
func previewText(content string) string {
	return truncate(content, maxPreviewLength)
}

// truncate cuts s to at most n characters (runes, not bytes).
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
