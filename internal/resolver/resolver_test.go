package resolver

import (
	"testing"

	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

func descriptor(tokens ...string) *ast.ColumnDescriptor {
	toks := make([]ast.Token, len(tokens))
	for i, s := range tokens {
		toks[i] = ast.Token{Name: s}
	}
	return ast.NewColumnDescriptor(ast.UserGen, toks, value.LiteralTypeMask(0xff))
}

func insert(r *Resolver, tr *schema.Tree, ns ast.Namespace, isAutoGen bool, loc schema.Locator) int32 {
	id, err := tr.Insert(loc)
	if err != nil {
		panic(err)
	}
	if err := r.OnNodeInserted(id, loc, ns, isAutoGen, nil); err != nil {
		panic(err)
	}
	return id
}

func TestResolver_LiteralPathMatch(t *testing.T) {
	d := descriptor("a", "b")
	r := New([]*ast.ColumnDescriptor{d}, nil)
	tr := schema.New()

	aID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Obj})
	bID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: aID, KeyName: "b", Type: schema.Int})

	got := r.Resolutions(d)
	if len(got) != 1 || got[0] != bID {
		t.Fatalf("Resolutions() = %v, want [%d]", got, bID)
	}
}

func TestResolver_WildcardAbsorbsZeroSegments(t *testing.T) {
	// Query `*.a == 1`; schema has a single node (root, "a", Int).
	d := descriptor(ast.Wildcard, "a")
	r := New([]*ast.ColumnDescriptor{d}, nil)
	tr := schema.New()

	aID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Int})

	got := r.Resolutions(d)
	if len(got) != 1 || got[0] != aID {
		t.Fatalf("Resolutions() = %v, want [%d] (wildcard must absorb zero segments)", got, aID)
	}
}

func TestResolver_WildcardAbsorbsMultipleSegments(t *testing.T) {
	d := descriptor(ast.Wildcard, "leaf")
	r := New([]*ast.ColumnDescriptor{d}, nil)
	tr := schema.New()

	aID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Obj})
	bID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: aID, KeyName: "b", Type: schema.Obj})
	leafID := insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: bID, KeyName: "leaf", Type: schema.Int})

	got := r.Resolutions(d)
	if len(got) != 1 || got[0] != leafID {
		t.Fatalf("Resolutions() = %v, want [%d]", got, leafID)
	}
}

func TestResolver_TypeMismatchNeverFinalizes(t *testing.T) {
	d := ast.NewColumnDescriptor(ast.UserGen, []ast.Token{{Name: "a"}}, value.LiteralTypeMask(value.LitBoolean))
	r := New([]*ast.ColumnDescriptor{d}, nil)
	tr := schema.New()

	insert(r, tr, ast.UserGen, false, schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Int})

	if got := r.Resolutions(d); len(got) != 0 {
		t.Fatalf("Resolutions() = %v, want none (type mismatch)", got)
	}
}

func TestResolver_NamespaceIsolation(t *testing.T) {
	d := descriptor("a")
	r := New([]*ast.ColumnDescriptor{d}, nil)
	tr := schema.New()

	// Insert into auto_gen: must not satisfy a user_gen descriptor.
	insert(r, tr, ast.AutoGen, true, schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Int})
	if got := r.Resolutions(d); len(got) != 0 {
		t.Fatalf("Resolutions() = %v, want none (wrong namespace)", got)
	}
}

func TestResolver_PureWildcardSkipsSeeding(t *testing.T) {
	d := descriptor(ast.Wildcard)
	r := New([]*ast.ColumnDescriptor{d}, nil)
	if len(r.partial) != 0 {
		t.Fatalf("expected no partial resolutions seeded for pure-wildcard descriptor")
	}
}

func TestResolver_ProjectionResolutionInvokesHandler(t *testing.T) {
	d := ast.NewProjectionDescriptor(ast.UserGen, []ast.Token{{Name: "a"}}, "a")
	r := New(nil, []*ast.ColumnDescriptor{d})
	tr := schema.New()

	var gotAutoGen bool
	var gotNodeID int32
	var gotPath string
	handler := func(isAutoGen bool, nodeID int32, path string) error {
		gotAutoGen, gotNodeID, gotPath = isAutoGen, nodeID, path
		return nil
	}

	loc := schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Int}
	id, err := tr.Insert(loc)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.OnNodeInserted(id, loc, ast.UserGen, false, handler); err != nil {
		t.Fatalf("OnNodeInserted(): %v", err)
	}
	if gotAutoGen || gotNodeID != id || gotPath != "a" {
		t.Fatalf("handler got (%v, %d, %q), want (false, %d, %q)", gotAutoGen, gotNodeID, gotPath, id, "a")
	}
}

func TestResolver_ProjectionHandlerErrorAbortsStep(t *testing.T) {
	d := ast.NewProjectionDescriptor(ast.UserGen, []ast.Token{{Name: "a"}}, "a")
	r := New(nil, []*ast.ColumnDescriptor{d})
	tr := schema.New()

	wantErr := errTest("boom")
	handler := func(bool, int32, string) error { return wantErr }

	loc := schema.Locator{ParentID: schema.RootID, KeyName: "a", Type: schema.Int}
	id, err := tr.Insert(loc)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.OnNodeInserted(id, loc, ast.UserGen, false, handler); err != wantErr {
		t.Fatalf("OnNodeInserted() err = %v, want %v", err, wantErr)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
