package listing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle collapses whitespace and applies title casing for
// marketplace display.
func NormalizeTitle(title string) string {
	collapsed := CollapseWhitespace(title)
	if collapsed == "" {
		return ""
	}
	return cases.Title(language.Und).String(collapsed)
}

// CollapseWhitespace trims a string and squeezes internal whitespace runs
// into single spaces.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// SanitizeSKU converts a string to an uppercase SKU token. Letters are
// uppercased, digits and hyphens are kept, everything else becomes a hyphen.
// Returns empty for input with no usable characters.
func SanitizeSKU(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune('-')
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}
