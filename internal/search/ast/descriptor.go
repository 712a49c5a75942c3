package ast

import (
	"strings"

	"kvirsearch/internal/value"
)

// Wildcard is the single inline wildcard token recognized inside a
// column path. The resolver lets it absorb one or more schema-tree
// segments, and also zero segments when it is a descriptor's first
// token or follows a matched literal key without being the last token
// (spec.md §4.5).
const Wildcard = "*"

// Token is one segment of a ColumnDescriptor's path: either a literal
// key name or the wildcard.
type Token struct {
	Name string
}

// IsWildcard reports whether this token is the inline wildcard.
func (t Token) IsWildcard() bool { return t.Name == Wildcard }

// ColumnDescriptor is a search-time key path with inline wildcards
// plus the bitmask of literal types an operand may coerce to. Two
// descriptors are never structurally compared: the AST, the
// resolver's partial-resolution lists, and the resolution map all key
// on the descriptor's identity (its pointer), not its contents — this
// is the reference-counted, identity-keyed handle design noted in
// spec.md §9.
type ColumnDescriptor struct {
	Namespace Namespace
	Tokens    []Token
	TypeMask  value.LiteralTypeMask

	// IsProjection marks a descriptor that exists purely to drive
	// resolution for a Projection (spec.md §3); it is never evaluated
	// and never appears inside the AST.
	IsProjection bool
	// OriginalPath is the human-readable dotted path this descriptor
	// was built from, reported back via handle_projection_resolution.
	// Only meaningful when IsProjection is true.
	OriginalPath string
}

// NewColumnDescriptor builds a descriptor from a non-empty ordered
// token list, collapsing consecutive wildcard tokens into one, per
// spec.md §3.
func NewColumnDescriptor(ns Namespace, tokens []Token, mask value.LiteralTypeMask) *ColumnDescriptor {
	return &ColumnDescriptor{
		Namespace: ns,
		Tokens:    collapseWildcards(tokens),
		TypeMask:  mask,
	}
}

// NewProjectionDescriptor builds a literal (wildcard-free) descriptor
// used only for resolution, never for evaluation.
func NewProjectionDescriptor(ns Namespace, tokens []Token, originalPath string) *ColumnDescriptor {
	return &ColumnDescriptor{
		Namespace:    ns,
		Tokens:       tokens,
		TypeMask:     0,
		IsProjection: true,
		OriginalPath: originalPath,
	}
}

func collapseWildcards(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.IsWildcard() && len(out) > 0 && out[len(out)-1].IsWildcard() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// PureWildcard reports whether the descriptor has exactly one token,
// which is the wildcard. A pure-wildcard descriptor's namespace is
// ignored during evaluation (spec.md §4.6).
func (d *ColumnDescriptor) PureWildcard() bool {
	return len(d.Tokens) == 1 && d.Tokens[0].IsWildcard()
}

// String renders a dotted path for diagnostics, e.g. "user_gen:a.*.b".
func (d *ColumnDescriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Namespace.String())
	b.WriteByte(':')
	for i, t := range d.Tokens {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
	}
	return b.String()
}
