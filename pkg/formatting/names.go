package formatting

import (
	"strings"
	"unicode"
)

// Initials returns up to two uppercase initials of a display name or the local
// part of an email address, e.g. "maria.garcia@isoone.io" gives "MG".
func Initials(name string) string {
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-'
	})

	var out []rune
	for _, w := range words {
		r := []rune(w)[0]
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
