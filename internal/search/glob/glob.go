// Package glob matches query-string literal operands, which double as
// shell-style wildcard patterns (spec.md §4.6), against decoded
// VarString / ClpString values. Matching is delegated to doublestar
// rather than a hand-rolled glob-to-regex translator. doublestar
// treats '/' as a path separator that '*' won't cross; a log message
// has no such separator, so '/' is replaced by a NUL byte in both
// pattern and subject before matching. A NUL byte in either one
// therefore also matches '/'.
package glob

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether s matches the glob pattern. When
// caseSensitive is false both pattern and subject are folded to lower
// case before matching, mirroring the case-insensitive overload
// spec.md §8 describes.
func Match(pattern, s string, caseSensitive bool) (bool, error) {
	if !caseSensitive {
		pattern = foldCase(pattern)
		s = foldCase(s)
	}
	return doublestar.Match(strings.ReplaceAll(pattern, "/", "\x00"), strings.ReplaceAll(s, "/", "\x00"))
}

func foldCase(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
