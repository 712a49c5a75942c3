// Package preprocess runs the three rewrite passes that turn a raw
// search AST (internal/search/ast) into the form the evaluator
// expects: OR-of-AND normalization, type narrowing, and exists
// conversion. Each pass may collapse its input to ast.EmptyExpr,
// which short-circuits the remaining passes.
package preprocess

import "kvirsearch/internal/search/ast"

// ToOrOfAnd rewrites expr into an OR of ANDs of (possibly inverted)
// filters, pushing NOT down to the filter leaves via De Morgan's laws.
// The AST has no NotExpr node of its own (spec.md's FilterExpr already
// carries an Invert flag), so "pushing NOT down" means toggling Invert
// while distributing AND over OR, the same cross-product construction
// the teacher's querylang.ToDNF uses for its Conjunction/DNF types.
func ToOrOfAnd(expr ast.Expr) ast.Expr {
	branches := toBranches(expr, false)
	if len(branches) == 0 {
		return &ast.EmptyExpr{}
	}
	return orOf(branches)
}

// toBranches returns the cross-product branches of expr, each a slice
// of leaf filters ANDed together, with invert applied (De Morgan) if
// the caller is inside an odd number of enclosing negations.
func toBranches(expr ast.Expr, invert bool) [][]*ast.FilterExpr {
	switch e := expr.(type) {
	case *ast.EmptyExpr:
		return nil

	case *ast.FilterExpr:
		f := *e
		if invert {
			f.Invert = !f.Invert
		}
		return [][]*ast.FilterExpr{{&f}}

	case *ast.AndExpr:
		effective := invert != e.Invert
		if effective {
			// NOT (A AND B) = (NOT A) OR (NOT B)
			var out [][]*ast.FilterExpr
			for _, c := range e.Children {
				out = append(out, toBranches(c, true)...)
			}
			return out
		}
		termBranches := make([][][]*ast.FilterExpr, len(e.Children))
		for i, c := range e.Children {
			termBranches[i] = toBranches(c, false)
		}
		return crossProduct(termBranches)

	case *ast.OrExpr:
		effective := invert != e.Invert
		if effective {
			// NOT (A OR B) = (NOT A) AND (NOT B)
			termBranches := make([][][]*ast.FilterExpr, len(e.Children))
			for i, c := range e.Children {
				termBranches[i] = toBranches(c, true)
			}
			return crossProduct(termBranches)
		}
		var out [][]*ast.FilterExpr
		for _, c := range e.Children {
			out = append(out, toBranches(c, false)...)
		}
		return out

	default:
		return nil
	}
}

func crossProduct(lists [][][]*ast.FilterExpr) [][]*ast.FilterExpr {
	if len(lists) == 0 {
		return [][]*ast.FilterExpr{{}}
	}
	result := lists[0]
	for i := 1; i < len(lists); i++ {
		result = combine(result, lists[i])
	}
	return result
}

func combine(a, b [][]*ast.FilterExpr) [][]*ast.FilterExpr {
	var result [][]*ast.FilterExpr
	for _, ca := range a {
		for _, cb := range b {
			merged := make([]*ast.FilterExpr, 0, len(ca)+len(cb))
			merged = append(merged, ca...)
			merged = append(merged, cb...)
			result = append(result, merged)
		}
	}
	return result
}

func orOf(branches [][]*ast.FilterExpr) ast.Expr {
	ors := make([]ast.Expr, 0, len(branches))
	for _, b := range branches {
		ors = append(ors, andOf(b))
	}
	if len(ors) == 1 {
		return ors[0]
	}
	return &ast.OrExpr{Children: ors}
}

func andOf(filters []*ast.FilterExpr) ast.Expr {
	if len(filters) == 0 {
		return &ast.EmptyExpr{}
	}
	if len(filters) == 1 {
		return filters[0]
	}
	children := make([]ast.Expr, len(filters))
	for i, f := range filters {
		children[i] = f
	}
	return &ast.AndExpr{Children: children}
}
