package engine

import (
	"strings"
	"time"
)

// Date patterns use the moment.js tokens note authors already know:
// YYYY, YY, MM, M, DD, D. Everything else is taken literally.
//
// Parsing is strict: the input must round-trip byte-identically through the
// pattern. Go's time.Parse accepts "2023-1-5" for layout "2006-01-02"; the
// reformat-and-compare step closes that hole.

var patternTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"M", "1"},
	{"DD", "02"},
	{"D", "2"},
}

// layoutFromPattern converts a date pattern to a Go time layout.
func layoutFromPattern(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, t := range patternTokens {
			if strings.HasPrefix(pattern[i:], t.token) {
				b.WriteString(t.layout)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

// ParseDateStrict parses s against pattern, requiring an exact match.
// The returned date is normalized to midnight UTC (calendar-day granularity).
func ParseDateStrict(s, pattern string) (time.Time, bool) {
	layout := layoutFromPattern(pattern)
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	if t.Format(layout) != s {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// FormatDate renders a date with the given pattern. Dates formatted with the
// run's pattern are the keys of the value store.
func FormatDate(t time.Time, pattern string) string {
	return t.Format(layoutFromPattern(pattern))
}
