// Package value implements the IR stream's tagged scalar value model
// and the mapping between schema-tree node types / values and the
// literal types the search evaluator matches against.
package value

import (
	"errors"
	"strconv"
	"strings"

	"kvirsearch/internal/schema"
)

// Kind tags the variant a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindNull
	KindShortString
	KindClpEncodedString
	KindUnstructuredArray
)

// ErrVarCountMismatch is returned by ClpEncodedString.Decode when the
// logtype's placeholder count does not match the supplied variables.
var ErrVarCountMismatch = errors.New("value: clp-encoded string variable count mismatch")

// Placeholder bytes embedded in a ClpEncodedString's Logtype, each
// standing in for the next variable of the matching kind.
const (
	DictVarPlaceholder  byte = 0x11
	IntVarPlaceholder   byte = 0x12
	FloatVarPlaceholder byte = 0x13
)

// ClpEncodedString is a logtype template plus the dictionary and
// inline-encoded numeric variables that were extracted from it at
// encode time. Decode reconstructs the original plain-UTF-8 text
// losslessly by substituting each placeholder with the next variable
// of its kind, in order.
type ClpEncodedString struct {
	Logtype       string
	DictVars      []string
	EncodedInts   []int64
	EncodedFloats []float64
}

// Decode reconstructs the plain-text message.
func (c ClpEncodedString) Decode() (string, error) {
	var b strings.Builder
	b.Grow(len(c.Logtype) * 2)

	var dictIdx, intIdx, floatIdx int
	for i := 0; i < len(c.Logtype); i++ {
		switch c.Logtype[i] {
		case DictVarPlaceholder:
			if dictIdx >= len(c.DictVars) {
				return "", ErrVarCountMismatch
			}
			b.WriteString(c.DictVars[dictIdx])
			dictIdx++
		case IntVarPlaceholder:
			if intIdx >= len(c.EncodedInts) {
				return "", ErrVarCountMismatch
			}
			b.WriteString(formatInt(c.EncodedInts[intIdx]))
			intIdx++
		case FloatVarPlaceholder:
			if floatIdx >= len(c.EncodedFloats) {
				return "", ErrVarCountMismatch
			}
			b.WriteString(formatFloat(c.EncodedFloats[floatIdx]))
			floatIdx++
		default:
			b.WriteByte(c.Logtype[i])
		}
	}
	if dictIdx != len(c.DictVars) || intIdx != len(c.EncodedInts) || floatIdx != len(c.EncodedFloats) {
		return "", ErrVarCountMismatch
	}
	return b.String(), nil
}

func formatInt(v int64) string     { return strconv.FormatInt(v, 10) }
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Value is a tagged scalar carried by a log event, associated with a
// schema-tree node id for the duration of one event.
type Value struct {
	Kind      Kind
	Int       int64
	Float     float64
	Bool      bool
	ShortStr  string
	ClpStr    ClpEncodedString
	ArrayJSON string // opaque, unstructured-array JSON text
}

func Int(v int64) Value           { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value       { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value           { return Value{Kind: KindBool, Bool: v} }
func Null() Value                 { return Value{Kind: KindNull} }
func ShortString(v string) Value  { return Value{Kind: KindShortString, ShortStr: v} }
func Array(jsonText string) Value { return Value{Kind: KindUnstructuredArray, ArrayJSON: jsonText} }
func ClpString(v ClpEncodedString) Value {
	return Value{Kind: KindClpEncodedString, ClpStr: v}
}

// LiteralType is the type used for query matching, derived from a
// (node type, value) pair or, before a value exists, admitted by a
// node type alone.
type LiteralType uint8

const (
	LitInteger LiteralType = 1 << iota
	LitFloat
	LitBoolean
	LitVarString
	LitClpString
	LitArray
	LitNull
	LitUnknown
)

func (l LiteralType) String() string {
	switch l {
	case LitInteger:
		return "Integer"
	case LitFloat:
		return "Float"
	case LitBoolean:
		return "Boolean"
	case LitVarString:
		return "VarString"
	case LitClpString:
		return "ClpString"
	case LitArray:
		return "Array"
	case LitNull:
		return "Null"
	case LitUnknown:
		return "Unknown"
	default:
		return "Mixed"
	}
}

// LiteralTypeMask is a bitmask of acceptable LiteralType values.
type LiteralTypeMask uint8

// Has reports whether t is admitted by the mask.
func (m LiteralTypeMask) Has(t LiteralType) bool { return m&LiteralTypeMask(t) != 0 }

// Intersect returns the mask admitted by both m and other.
func (m LiteralTypeMask) Intersect(other LiteralTypeMask) LiteralTypeMask { return m & other }

// Empty reports whether the mask admits nothing.
func (m LiteralTypeMask) Empty() bool { return m == 0 }

// OfLiteralType builds a single-bit mask.
func OfLiteralType(t LiteralType) LiteralTypeMask { return LiteralTypeMask(t) }

// LiteralTypeOf maps a (node type, value) pair to exactly one literal
// type, per spec.md §4.2's forward mapping. This is the DESIGN.md
// §"Open Question 1" policy point: an Obj node's value is Null iff the
// node's path ended in an actual leaf written as JSON null; any other
// value observed under an Obj node (there should never be one, but a
// corrupt/odd producer could) maps to Unknown, which no comparison
// operator admits, so a comparison filter on it yields Prune; an
// EXISTS/NEXISTS filter, whose narrowed mask keeps every bit, still
// treats such a value as present.
func LiteralTypeOf(nodeType schema.NodeType, v Value) LiteralType {
	switch nodeType {
	case schema.Int:
		return LitInteger
	case schema.Float:
		return LitFloat
	case schema.Bool:
		return LitBoolean
	case schema.UnstructuredArray:
		return LitArray
	case schema.Str:
		if v.Kind == KindClpEncodedString {
			return LitClpString
		}
		return LitVarString
	case schema.Obj:
		if v.Kind == KindNull {
			return LitNull
		}
		return LitUnknown
	default:
		return LitUnknown
	}
}

// CandidateLiteralTypes maps a node type to the literal types it could
// possibly produce once a value is attached, per spec.md §4.2's
// reverse mapping. Used by the resolver and by type-narrowing, both of
// which run before any value is available.
func CandidateLiteralTypes(nodeType schema.NodeType) LiteralTypeMask {
	switch nodeType {
	case schema.Int, schema.Float:
		return LiteralTypeMask(LitInteger | LitFloat)
	case schema.Bool:
		return LiteralTypeMask(LitBoolean)
	case schema.Str:
		return LiteralTypeMask(LitClpString | LitVarString)
	case schema.UnstructuredArray:
		return LiteralTypeMask(LitArray)
	case schema.Obj:
		return LiteralTypeMask(LitNull)
	default:
		return 0
	}
}
