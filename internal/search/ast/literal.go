package ast

import "fmt"

// Operator is a filter's comparison operator.
type Operator int

const (
	OpEQ Operator = iota
	OpNEQ
	OpLT
	OpGT
	OpLTE
	OpGTE
	OpExists
	OpNExists
)

func (o Operator) String() string {
	switch o {
	case OpEQ:
		return "=="
	case OpNEQ:
		return "!="
	case OpLT:
		return "<"
	case OpGT:
		return ">"
	case OpLTE:
		return "<="
	case OpGTE:
		return ">="
	case OpExists:
		return "EXISTS"
	case OpNExists:
		return "NEXISTS"
	default:
		return "?"
	}
}

// IsExistence reports whether the operator ignores any operand.
func (o Operator) IsExistence() bool { return o == OpExists || o == OpNExists }

// LiteralKind tags the Go-level shape a Literal operand was supplied
// as by the query parser, before it is coerced to the matched
// column's literal type during evaluation.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
)

// Literal is a query operand: a constant the parser produced. String
// literals double as glob patterns when compared against VarString or
// ClpString columns (spec.md §4.6): '*' matches any run, '?' matches
// one character.
type Literal struct {
	Kind   LiteralKind
	Int    int64
	Float  float64
	Bool   bool
	Str    string
}

func IntLiteral(v int64) Literal     { return Literal{Kind: LiteralInt, Int: v} }
func FloatLiteral(v float64) Literal { return Literal{Kind: LiteralFloat, Float: v} }
func BoolLiteral(v bool) Literal     { return Literal{Kind: LiteralBool, Bool: v} }
func StringLiteral(v string) Literal { return Literal{Kind: LiteralString, Str: v} }

func (l Literal) String() string {
	switch l.Kind {
	case LiteralInt:
		return fmt.Sprintf("%d", l.Int)
	case LiteralFloat:
		return fmt.Sprintf("%g", l.Float)
	case LiteralBool:
		return fmt.Sprintf("%t", l.Bool)
	case LiteralString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return "?"
	}
}
