// Package projectspec turns a CLI-supplied JSONPath string into an
// ast.ColumnDescriptor usable as a Projection (spec.md §3, §6). It
// follows the teacher's validate-then-convert pipeline shape seen in
// querylang/attrs.go: a syntax pass using a real JSONPath parser,
// followed by a narrowing pass that rejects anything beyond a single
// concrete path (spec.md §6 requires InvalidArgument on wildcard,
// slice, filter, or union selectors — a Projection names exactly one
// column, never a set of them).
package projectspec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theory/jsonpath"

	"kvirsearch/internal/search/ast"
)

// ErrNotConcrete is returned when path is syntactically valid JSONPath
// but names more than one location (wildcard, slice, filter, union,
// or descendant segment).
var ErrNotConcrete = errors.New("projectspec: path is not a single concrete location")

// Parse validates raw as JSONPath and, if it names exactly one
// concrete location, returns the equivalent projection descriptor for
// namespace ns. raw must start with "$".
func Parse(ns ast.Namespace, raw string) (*ast.ColumnDescriptor, error) {
	if _, err := jsonpath.Parse(raw); err != nil {
		return nil, fmt.Errorf("projectspec: %w", err)
	}

	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}
	return ast.NewProjectionDescriptor(ns, tokens, raw), nil
}

// tokenize re-walks raw itself rather than the parsed AST, since the
// only segments this package accepts are plain dot names and
// single-quoted/double-quoted bracket names or integer bracket
// indices — anything else (*, .., slices, filters, unions) is
// rejected before it ever reaches the resolver.
func tokenize(raw string) ([]ast.Token, error) {
	if !strings.HasPrefix(raw, "$") {
		return nil, fmt.Errorf("%w: must start with \"$\"", ErrNotConcrete)
	}
	rest := raw[1:]
	if strings.Contains(rest, "..") {
		return nil, fmt.Errorf("%w: descendant segments are not a single location", ErrNotConcrete)
	}

	var tokens []ast.Token
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			name, tail, err := readDotName(rest)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ast.Token{Name: name})
			rest = tail
		case '[':
			name, tail, err := readBracketName(rest)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ast.Token{Name: name})
			rest = tail
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrNotConcrete, rest[0])
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: path names the root, not a column", ErrNotConcrete)
	}
	return tokens, nil
}

func readDotName(rest string) (name, tail string, err error) {
	i := 0
	for i < len(rest) && rest[i] != '.' && rest[i] != '[' {
		i++
	}
	name = rest[:i]
	if name == "" {
		return "", "", fmt.Errorf("%w: empty name segment", ErrNotConcrete)
	}
	if name == "*" {
		return "", "", fmt.Errorf("%w: wildcard segment", ErrNotConcrete)
	}
	return name, rest[i:], nil
}

func readBracketName(rest string) (name, tail string, err error) {
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return "", "", fmt.Errorf("%w: unterminated bracket segment", ErrNotConcrete)
	}
	inner := rest[1:end]
	tail = rest[end+1:]

	switch {
	case inner == "*":
		return "", "", fmt.Errorf("%w: wildcard segment", ErrNotConcrete)
	case strings.ContainsAny(inner, ":,?"):
		return "", "", fmt.Errorf("%w: slice, union, or filter segment", ErrNotConcrete)
	case len(inner) >= 2 && (inner[0] == '\'' && inner[len(inner)-1] == '\'' || inner[0] == '"' && inner[len(inner)-1] == '"'):
		return inner[1 : len(inner)-1], tail, nil
	default:
		if _, err := strconv.Atoi(inner); err != nil {
			return "", "", fmt.Errorf("%w: unsupported bracket segment %q", ErrNotConcrete, inner)
		}
		return inner, tail, nil
	}
}
