package preprocess

import (
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

// operatorAdmits returns the literal-type mask an operator/operand
// pair can ever match against. EXISTS and NEXISTS admit every type
// since they never compare against the value; the comparison
// operators admit only the types their operand's kind can be coerced
// to (spec.md §4.3's "literal types admitted by its operator and
// operand").
func operatorAdmits(op ast.Operator, operand *ast.Literal) value.LiteralTypeMask {
	if op.IsExistence() {
		return value.LiteralTypeMask(0xff)
	}
	if operand == nil {
		return 0
	}
	switch operand.Kind {
	case ast.LiteralInt:
		return value.OfLiteralType(value.LitInteger) | value.OfLiteralType(value.LitFloat)
	case ast.LiteralFloat:
		return value.OfLiteralType(value.LitFloat)
	case ast.LiteralBool:
		return value.OfLiteralType(value.LitBoolean)
	case ast.LiteralString:
		// A string operand is a glob pattern; it can compare against
		// either string representation the column might carry.
		return value.OfLiteralType(value.LitVarString) | value.OfLiteralType(value.LitClpString)
	default:
		return 0
	}
}

// TypeNarrow intersects each FilterExpr's column type mask with the
// types its operator/operand pair admits. A filter whose resulting
// mask is empty becomes EmptyExpr and is absorbed by the surrounding
// AND/OR algebra: EmptyExpr AND x = EmptyExpr, EmptyExpr OR x = x.
func TypeNarrow(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case nil, *ast.EmptyExpr:
		return &ast.EmptyExpr{}

	case *ast.FilterExpr:
		narrowed := e.Column.TypeMask.Intersect(operatorAdmits(e.Op, e.Operand))
		if narrowed.Empty() {
			return &ast.EmptyExpr{}
		}
		f := *e
		col := *e.Column
		col.TypeMask = narrowed
		f.Column = &col
		return &f

	case *ast.AndExpr:
		children := make([]ast.Expr, 0, len(e.Children))
		for _, c := range e.Children {
			nc := TypeNarrow(c)
			if _, empty := nc.(*ast.EmptyExpr); empty {
				return &ast.EmptyExpr{}
			}
			children = append(children, nc)
		}
		if len(children) == 1 {
			return children[0]
		}
		return &ast.AndExpr{Children: children}

	case *ast.OrExpr:
		children := make([]ast.Expr, 0, len(e.Children))
		for _, c := range e.Children {
			nc := TypeNarrow(c)
			if _, empty := nc.(*ast.EmptyExpr); empty {
				continue
			}
			children = append(children, nc)
		}
		if len(children) == 0 {
			return &ast.EmptyExpr{}
		}
		if len(children) == 1 {
			return children[0]
		}
		return &ast.OrExpr{Children: children}

	default:
		return &ast.EmptyExpr{}
	}
}
