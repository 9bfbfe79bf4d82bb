// Package strutil provides rune-safe string helpers.
package strutil

// Truncate truncates a string to maxLen runes and appends "..." when it was cut.
// Returns empty string if maxLen <= 0 to prevent slice bounds panic.
func Truncate(s string, maxLen int) string {
	return TruncateWithMarker(s, maxLen, "...")
}

// TruncateWithMarker keeps the first maxLen runes of s and appends marker
// when anything was dropped. Multi-byte characters are never split.
func TruncateWithMarker(s string, maxLen int, marker string) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + marker
}

// Prefix returns at most maxLen runes of s with no marker.
func Prefix(s string, maxLen int) string {
	return TruncateWithMarker(s, maxLen, "")
}
