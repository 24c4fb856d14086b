package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE/ILIKE metacharacters so user input is matched
// literally when embedded in a pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern wraps an escaped query for a substring ILIKE match.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
