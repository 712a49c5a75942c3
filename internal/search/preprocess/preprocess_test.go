package preprocess

import (
	"testing"

	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

func col(name string, mask value.LiteralTypeMask) *ast.ColumnDescriptor {
	return ast.NewColumnDescriptor(ast.UserGen, []ast.Token{{Name: name}}, mask)
}

func wildcardCol() *ast.ColumnDescriptor {
	return ast.NewColumnDescriptor(ast.UserGen, []ast.Token{{Name: ast.Wildcard}}, 0)
}

func eqFilter(c *ast.ColumnDescriptor, v int64) *ast.FilterExpr {
	lit := ast.IntLiteral(v)
	return &ast.FilterExpr{Column: c, Op: ast.OpEQ, Operand: &lit}
}

func TestToOrOfAnd_PushesNotThroughAnd(t *testing.T) {
	a := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	b := eqFilter(col("b", value.LiteralTypeMask(value.LitInteger)), 2)
	and := &ast.AndExpr{Children: []ast.Expr{a, b}}

	got := toBranches(and, true) // NOT (a AND b) = (NOT a) OR (NOT b)
	if len(got) != 2 {
		t.Fatalf("got %d branches, want 2", len(got))
	}
	if !got[0][0].Invert || !got[1][0].Invert {
		t.Fatalf("expected both branches inverted: %+v", got)
	}
}

func TestToOrOfAnd_DistributesAndOverOr(t *testing.T) {
	a := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	b := eqFilter(col("b", value.LiteralTypeMask(value.LitInteger)), 2)
	c := eqFilter(col("c", value.LiteralTypeMask(value.LitInteger)), 3)

	or := &ast.OrExpr{Children: []ast.Expr{a, b}}
	and := &ast.AndExpr{Children: []ast.Expr{or, c}}

	got := ToOrOfAnd(and)
	orExpr, ok := got.(*ast.OrExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.OrExpr", got)
	}
	if len(orExpr.Children) != 2 {
		t.Fatalf("got %d branches, want 2: %s", len(orExpr.Children), got.String())
	}
	for _, branch := range orExpr.Children {
		andExpr, ok := branch.(*ast.AndExpr)
		if !ok {
			t.Fatalf("branch %T, want *ast.AndExpr", branch)
		}
		if len(andExpr.Children) != 2 {
			t.Fatalf("branch has %d children, want 2", len(andExpr.Children))
		}
	}
}

func TestTypeNarrow_EmptiesIncompatibleFilter(t *testing.T) {
	f := eqFilter(col("a", value.LiteralTypeMask(value.LitBoolean)), 1) // bool column, int operand
	got := TypeNarrow(f)
	if _, empty := got.(*ast.EmptyExpr); !empty {
		t.Fatalf("got %T, want EmptyExpr", got)
	}
}

func TestTypeNarrow_PropagatesThroughAnd(t *testing.T) {
	good := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	bad := eqFilter(col("b", value.LiteralTypeMask(value.LitBoolean)), 1)
	and := &ast.AndExpr{Children: []ast.Expr{good, bad}}

	got := TypeNarrow(and)
	if _, empty := got.(*ast.EmptyExpr); !empty {
		t.Fatalf("got %T, want EmptyExpr (AND absorbs empty child)", got)
	}
}

func TestTypeNarrow_OrDropsEmptyChild(t *testing.T) {
	good := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	bad := eqFilter(col("b", value.LiteralTypeMask(value.LitBoolean)), 1)
	or := &ast.OrExpr{Children: []ast.Expr{good, bad}}

	got := TypeNarrow(or)
	f, ok := got.(*ast.FilterExpr)
	if !ok {
		t.Fatalf("got %T, want surviving *ast.FilterExpr", got)
	}
	if f.Column.Tokens[0].Name != "a" {
		t.Fatalf("got filter on %q, want survivor 'a'", f.Column.Tokens[0].Name)
	}
}

func TestExistsConvert_PureWildcard(t *testing.T) {
	lit := ast.IntLiteral(1)
	f := &ast.FilterExpr{Column: wildcardCol(), Op: ast.OpEQ, Operand: &lit}
	got := ExistsConvert(f).(*ast.FilterExpr)
	if got.Op != ast.OpExists || got.Operand != nil {
		t.Fatalf("got %+v, want bare OpExists", got)
	}

	fInv := &ast.FilterExpr{Column: wildcardCol(), Op: ast.OpEQ, Operand: &lit, Invert: true}
	gotInv := ExistsConvert(fInv).(*ast.FilterExpr)
	if gotInv.Op != ast.OpNExists || gotInv.Invert {
		t.Fatalf("got %+v, want bare OpNExists", gotInv)
	}
}

func TestExistsConvert_LeavesNonWildcardAlone(t *testing.T) {
	f := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	got := ExistsConvert(f).(*ast.FilterExpr)
	if got.Op != ast.OpEQ || got.Operand == nil {
		t.Fatalf("got %+v, want unchanged EQ filter", got)
	}
}

func TestPreprocess_NilIsMatchEverything(t *testing.T) {
	if got := Preprocess(nil); got != nil {
		t.Fatalf("Preprocess(nil) = %v, want nil", got)
	}
}

func TestPreprocess_Idempotent(t *testing.T) {
	a := eqFilter(col("a", value.LiteralTypeMask(value.LitInteger)), 1)
	b := eqFilter(col("b", value.LiteralTypeMask(value.LitInteger)), 2)
	or := &ast.OrExpr{Children: []ast.Expr{a, b}}

	once := Preprocess(or)
	twice := Preprocess(once)
	if once.String() != twice.String() {
		t.Fatalf("preprocess not idempotent: %s != %s", once.String(), twice.String())
	}
}

func TestPreprocess_AllFiltersNarrowedEmptyCollapsesWholeQuery(t *testing.T) {
	bad := eqFilter(col("a", value.LiteralTypeMask(value.LitBoolean)), 1)
	got := Preprocess(bad)
	if _, empty := got.(*ast.EmptyExpr); !empty {
		t.Fatalf("got %T, want EmptyExpr", got)
	}
}
