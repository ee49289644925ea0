package textutil

import "regexp"

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes terminal colour and cursor escape sequences.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
