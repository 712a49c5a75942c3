// Package ast defines the search AST: tagged expression nodes
// (AndExpr, OrExpr, FilterExpr, EmptyExpr) plus the operand types that
// appear as their leaves (ColumnDescriptor, Literal). The AST is built
// by an external query parser (out of scope, spec.md §1) and consumed
// by internal/search/preprocess and internal/eval.
package ast

// Namespace distinguishes auto-generated (system-emitted) keys from
// user-generated keys. Two independent schema trees exist per stream,
// one per namespace.
type Namespace int

const (
	AutoGen Namespace = iota
	UserGen
)

func (n Namespace) String() string {
	switch n {
	case AutoGen:
		return "auto_gen"
	case UserGen:
		return "user_gen"
	default:
		return "unknown_namespace"
	}
}
