package engine

import (
	"strconv"
	"strings"
)

// Clock-time values are recognized against twelve canonical shapes:
//
//	HH:mm  HH:m  H:mm  H:m          (24-hour)
//	hh:mm A  hh:m A  h:mm A  h:m A  (12-hour, "AM"/"PM")
//	hh:mm a  hh:m a  h:mm a  h:m a  (12-hour, "am"/"pm")
//
// i.e. one or two digit hour and minute, with an optional single-space
// meridiem suffix. Hand-rolled rather than regex named groups so the
// accepted grammar is explicit.

// ParseClockTime parses s as a time of day and returns elapsed seconds since
// midnight. Seconds, fractional minutes and mixed-case meridiems are
// rejected.
func ParseClockTime(s string) (float64, bool) {
	meridiem := ""
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		suffix := s[i+1:]
		switch suffix {
		case "AM", "PM", "am", "pm":
			meridiem = strings.ToUpper(suffix)
			s = s[:i]
		default:
			return 0, false
		}
	}

	hs, ms, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	hour, ok := parseTwoDigit(hs)
	if !ok {
		return 0, false
	}
	minute, ok := parseTwoDigit(ms)
	if !ok || minute > 59 {
		return 0, false
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, false
		}
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		hour %= 12
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		hour = hour%12 + 12
	}

	return float64(hour*3600 + minute*60), true
}

// parseTwoDigit accepts one or two ASCII digits.
func parseTwoDigit(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// ParseTimeOrNumber applies the shared numeric policy: a string containing a
// colon is first tried as a clock time (yielding seconds since midnight and
// isTime=true); anything else, or a failed time parse, falls through to
// floating point.
func ParseTimeOrNumber(s string) (value float64, isTime, ok bool) {
	if strings.ContainsRune(s, ':') {
		if v, ok := ParseClockTime(s); ok {
			return v, true, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return f, false, true
}

// splitValues splits a multi-value string. A comma anywhere in the value
// takes priority over the query separator; this is deliberate even when the
// configured separator itself contains a comma. Elements are trimmed.
func splitValues(s, separator string) []string {
	sep := separator
	if strings.Contains(s, ",") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
