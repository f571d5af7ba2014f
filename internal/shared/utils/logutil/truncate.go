package logutil

// TruncateForLog keeps at most maxLen bytes of s followed by "...".
// Secret-bearing values such as license keys go through this before logging.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// MaskSecret shows the first and last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 12 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
