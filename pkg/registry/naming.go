package registry

import (
	"strings"
	"unicode"
)

// SnakeCase converts a Go field name to a column name, e.g. "MaxHP" -> "max_hp",
// "UserID" -> "user_id", "HTMLElement" -> "html_element".
func SnakeCase(name string) string {
	runes := []rune(name)
	n := len(runes)
	var b strings.Builder

	for i := 0; i < n; i++ {
		if i > 0 && unicode.IsUpper(runes[i]) && ((i+1 < n && unicode.IsLower(runes[i+1])) || unicode.IsLower(runes[i-1])) {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToLower(runes[i]))
	}

	return b.String()
}
