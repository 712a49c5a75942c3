package main

import "kvirsearch/internal/search/ast"

// collectColumns walks a preprocessed query expression and returns
// every distinct ColumnDescriptor it references, in encounter order —
// the set the resolver needs seeded via resolver.New's queryDescriptors
// argument (spec.md §4.5).
func collectColumns(expr ast.Expr) []*ast.ColumnDescriptor {
	var out []*ast.ColumnDescriptor
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.FilterExpr:
			out = append(out, n.Column)
		case *ast.AndExpr:
			for _, c := range n.Children {
				walk(c)
			}
		case *ast.OrExpr:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	if expr != nil {
		walk(expr)
	}
	return out
}
