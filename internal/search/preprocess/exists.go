package preprocess

import "kvirsearch/internal/search/ast"

// ExistsConvert rewrites filters whose operand carries no
// discriminating information beyond "the column has a value" into
// plain EXISTS / NEXISTS filters, dropping the now-meaningless
// operand. The only such case post type-narrowing is a pure-wildcard
// column descriptor: matching "*" against any operator only ever
// tests whether some leaf exists under the scanned subtree, since a
// pure wildcard carries no operand-shaped value of its own to compare
// (spec.md §4.6).
func ExistsConvert(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case nil, *ast.EmptyExpr:
		return &ast.EmptyExpr{}

	case *ast.FilterExpr:
		if !e.Column.PureWildcard() || e.Op.IsExistence() {
			return e
		}
		f := *e
		f.Operand = nil
		if f.Invert {
			f.Op = ast.OpNExists
		} else {
			f.Op = ast.OpExists
		}
		f.Invert = false
		return &f

	case *ast.AndExpr:
		children := make([]ast.Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = ExistsConvert(c)
		}
		return &ast.AndExpr{Children: children}

	case *ast.OrExpr:
		children := make([]ast.Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = ExistsConvert(c)
		}
		return &ast.OrExpr{Children: children}

	default:
		return &ast.EmptyExpr{}
	}
}

// Preprocess runs the three rewrite passes in order, short-circuiting
// as soon as any pass collapses the expression to EmptyExpr. A nil
// input ("match everything") passes through unchanged.
func Preprocess(expr ast.Expr) ast.Expr {
	if expr == nil {
		return nil
	}
	e := ToOrOfAnd(expr)
	if _, empty := e.(*ast.EmptyExpr); empty {
		return e
	}
	e = TypeNarrow(e)
	if _, empty := e.(*ast.EmptyExpr); empty {
		return e
	}
	return ExistsConvert(e)
}
