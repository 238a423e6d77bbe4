package common

import "strings"

// HasAny reports whether s contains any of subs, ignoring case.
// Upstream error messages vary in capitalisation ("Invalid key", "INVALID_KEY").
func HasAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
