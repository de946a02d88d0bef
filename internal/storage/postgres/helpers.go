package postgres

import "strings"

var ilikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeILIKEPattern escapes LIKE wildcards so user input matches literally.
func escapeILIKEPattern(value string) string {
	return ilikeEscaper.Replace(value)
}
