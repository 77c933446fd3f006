package helpers

import "strings"

// likeEscaper escapes the LIKE metacharacters using backslash, which is
// Postgres' default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes s so it matches literally inside a LIKE pattern
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern builds a LIKE pattern matching any value containing s
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
