// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blanks from values, trimming each
// element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// NormalizeOrigins prepares a CORS origin list for exact matching: entries are
// trimmed, lowercased, stripped of a trailing slash and deduplicated. "*" is
// kept as is.
func NormalizeOrigins(origins []string) []string {
	return dedupe(origins, func(o string) string {
		o = strings.ToLower(strings.TrimSpace(o))
		return strings.TrimSuffix(o, "/")
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
