package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchesAny reports whether query is a case-insensitive substring of any field.
// An empty query matches everything.
func MatchesAny(query string, fields ...string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	fold := cases.Fold()
	needle := fold.String(query)
	for _, field := range fields {
		if field == "" {
			continue
		}
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}
