package expand

import (
	"strings"
	"unicode"
)

// MaxResponseRunes caps the length of a returned query.
const MaxResponseRunes = 200

// Clean normalises a generated query: surrounding whitespace is removed,
// a single wrapping pair of double quotes is dropped, and the text is cut to
// MaxResponseRunes (no ellipsis). A pair exposed by the cut is dropped too,
// so Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	s = unquote(strings.TrimSpace(s))
	if r := []rune(s); len(r) > MaxResponseRunes {
		s = unquote(strings.TrimRightFunc(string(r[:MaxResponseRunes]), unicode.IsSpace))
	}
	return s
}

// unquote removes one outer pair of double quotes when they are the only
// quotes in s.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && strings.Count(s, `"`) == 2 {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
