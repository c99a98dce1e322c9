package common

import (
	"strings"
	"time"
	"unicode/utf8"
)

const displayTimeFormat = "2006-01-02 15:04"

// FormatTime renders a stored UTC timestamp in the given location with minute
// precision. A nil location keeps UTC.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "—"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(displayTimeFormat)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// OrDefault returns def when s is blank.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
