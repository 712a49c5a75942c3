package eval

import (
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

// Evaluator ties a preprocessed query's column resolutions (tracked by
// a Resolver) and the live schema trees (used to classify resolved
// node ids) to log-event evaluation.
type Evaluator struct {
	Resolver      *resolver.Resolver
	AutoGenTree   *schema.Tree
	UserGenTree   *schema.Tree
	CaseSensitive bool
}

// Evaluate runs the three-valued evaluator over expr against event. A
// nil expr means "match everything" and always returns True, matching
// the Deserializer's treatment of a null query.
func (e *Evaluator) Evaluate(expr ast.Expr, event Event) (TriState, error) {
	if expr == nil {
		return True, nil
	}
	switch node := expr.(type) {
	case *ast.EmptyExpr:
		return Prune, nil
	case *ast.FilterExpr:
		return e.evalFilter(node, event)
	case *ast.AndExpr:
		return e.evalAnd(node, event)
	case *ast.OrExpr:
		return e.evalOr(node, event)
	default:
		return Prune, nil
	}
}

func (e *Evaluator) namespacePairs(ns ast.Namespace, event Event) (Pairs, *schema.Tree) {
	if ns == ast.AutoGen {
		return event.AutoGen, e.AutoGenTree
	}
	return event.UserGen, e.UserGenTree
}

func (e *Evaluator) evalFilter(f *ast.FilterExpr, event Event) (TriState, error) {
	if f.Column.PureWildcard() {
		return e.evalPureWildcardFilter(f, event)
	}

	pairs, tree := e.namespacePairs(f.Column.Namespace, event)
	ids := e.Resolver.Resolutions(f.Column)
	if len(ids) == 0 {
		return Prune, nil
	}

	var (
		found bool
		id    int32
		v     value.Value
	)
	for _, candidate := range ids {
		if val, ok := pairs[candidate]; ok {
			id, v, found = candidate, val, true
			break
		}
	}
	if !found {
		return Prune, nil
	}

	node, err := tree.Node(id)
	if err != nil {
		return Prune, nil
	}
	lit := value.LiteralTypeOf(node.Type, v)
	if !f.Column.TypeMask.Has(lit) {
		return Prune, nil
	}

	result, err := e.applyFilterOperator(f, lit, v)
	if err != nil {
		return Prune, err
	}
	return invert(result, f.Invert), nil
}

// evalPureWildcardFilter matches a pure-wildcard column: namespace is
// ignored and every pair in both maps is a candidate (spec.md §4.6).
func (e *Evaluator) evalPureWildcardFilter(f *ast.FilterExpr, event Event) (TriState, error) {
	sawAdmissible := false
	namespaces := [2]struct {
		pairs Pairs
		tree  *schema.Tree
	}{
		{event.AutoGen, e.AutoGenTree},
		{event.UserGen, e.UserGenTree},
	}
	for _, group := range namespaces {
		for id, v := range group.pairs {
			node, err := group.tree.Node(id)
			if err != nil {
				continue
			}
			lit := value.LiteralTypeOf(node.Type, v)
			if !f.Column.TypeMask.Has(lit) {
				continue
			}
			sawAdmissible = true
			matched, err := e.applyFilterOperator(f, lit, v)
			if err != nil {
				return Prune, err
			}
			if matched == True {
				return invert(True, f.Invert), nil
			}
		}
	}
	if !sawAdmissible {
		return Prune, nil
	}
	return invert(False, f.Invert), nil
}

func (e *Evaluator) applyFilterOperator(f *ast.FilterExpr, lit value.LiteralType, v value.Value) (TriState, error) {
	if f.Op.IsExistence() {
		if f.Op == ast.OpExists {
			return True, nil
		}
		return False, nil
	}
	matched, err := applyOperator(f.Op, lit, v, f.Operand, e.CaseSensitive)
	if err != nil {
		return False, err
	}
	return boolToTriState(matched), nil
}

// evalAnd folds children left-to-right per spec.md §4.6: a Prune among
// the children wins outright (returned immediately, never inverted),
// taking priority over a known False; only once every child is known
// True does the node itself return True.
func (e *Evaluator) evalAnd(a *ast.AndExpr, event Event) (TriState, error) {
	sawFalse := false
	for _, c := range a.Children {
		r, err := e.Evaluate(c, event)
		if err != nil {
			return Prune, err
		}
		if r == Prune {
			return Prune, nil
		}
		if r == False {
			sawFalse = true
		}
	}
	if sawFalse {
		return invert(False, a.Invert), nil
	}
	return invert(True, a.Invert), nil
}

func (e *Evaluator) evalOr(o *ast.OrExpr, event Event) (TriState, error) {
	allPrune := true
	for _, c := range o.Children {
		r, err := e.Evaluate(c, event)
		if err != nil {
			return Prune, err
		}
		if r == True {
			return invert(True, o.Invert), nil
		}
		if r != Prune {
			allPrune = false
		}
	}
	if allPrune {
		return Prune, nil
	}
	return invert(False, o.Invert), nil
}
