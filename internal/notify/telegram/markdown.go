package telegram

import (
	"strings"
	"unicode/utf8"
)

// reserved is the MarkdownV2 punctuation that must be escaped outside entities.
const reserved = "_*[]()~`>#+-=|{}.!\\"

// Escape prefixes every MarkdownV2 reserved character in s with a backslash.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if strings.ContainsRune(reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most n runes and appends an ellipsis when it did.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:n]), isSpace) + "…"
}

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }
