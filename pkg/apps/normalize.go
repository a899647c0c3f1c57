package apps

import (
	"strings"
	"unicode"
)

// Normalize derives the canonical identifier for an application from its name
// and version. Both parts are trimmed and lowercased independently, then
// concatenated, and every remaining whitespace rune is removed.
//
//	Normalize(" Foo ", " 1.0 ") == Normalize("foo", "1.0") // "foo1.0"
//	Normalize("App A", "")      == "appa"
//
// Empty parts contribute nothing. Normalize never fails.
func Normalize(name, version string) NodeID {
	joined := strings.ToLower(strings.TrimSpace(name)) + strings.ToLower(strings.TrimSpace(version))
	return NodeID(strings.Map(dropSpace, joined))
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}
