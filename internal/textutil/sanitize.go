package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps characters that are unsafe in file names on common
// filesystems.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a backend-supplied subtitle name safe to create
// locally. Separators and colons become dashes, other reserved characters
// and control characters are dropped. Names made only of dots are rejected.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	name = strings.TrimSpace(name)
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

// SingleLine collapses runs of whitespace, newlines included, into single
// spaces so a value fits in one table cell.
func SingleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Truncate shortens value to at most width runes, ending with an ellipsis
// when something was cut.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
