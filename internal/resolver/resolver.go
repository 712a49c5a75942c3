// Package resolver incrementally matches ColumnDescriptor paths
// (drawn from a preprocessed query's filters, plus a projection's
// literal key paths) against a schema tree that grows one node at a
// time, without ever re-scanning previously inserted nodes.
package resolver

import (
	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

type partialKey struct {
	nodeID int32
	ns     ast.Namespace
}

type partialEntry struct {
	descriptor *ast.ColumnDescriptor
	cursor     int
}

// ProjectionResolutionFunc reports a projection descriptor's leaf
// match, mirroring the unit handler's optional
// handle_projection_resolution callback (spec.md §6). A non-nil
// return aborts the resolver step that triggered it.
type ProjectionResolutionFunc func(isAutoGen bool, nodeID int32, originalKeyPath string) error

// Resolver holds the partial/full resolution state for one
// deserializer instance. Not safe for concurrent use.
type Resolver struct {
	partial     map[partialKey][]partialEntry
	resolutions map[*ast.ColumnDescriptor][]int32
}

// New builds a Resolver and runs its initialization step: one partial
// resolution anchored at (root, namespace) for every non-pure-wildcard
// query descriptor and every projection descriptor (spec.md §4.5).
// Pure-wildcard query descriptors are intentionally omitted — the
// evaluator matches them directly against a log event's pairs without
// resolver help.
func New(queryDescriptors, projectionDescriptors []*ast.ColumnDescriptor) *Resolver {
	r := &Resolver{
		partial:     make(map[partialKey][]partialEntry),
		resolutions: make(map[*ast.ColumnDescriptor][]int32),
	}
	for _, d := range queryDescriptors {
		if d.PureWildcard() {
			continue
		}
		r.seed(d)
	}
	for _, d := range projectionDescriptors {
		r.seed(d)
	}
	return r
}

func (r *Resolver) seed(d *ast.ColumnDescriptor) {
	r.insertPartial(schema.RootID, d.Namespace, d, 0)
	if len(d.Tokens) > 0 && d.Tokens[0].IsWildcard() {
		r.insertPartial(schema.RootID, d.Namespace, d, 1)
	}
}

func (r *Resolver) insertPartial(nodeID int32, ns ast.Namespace, d *ast.ColumnDescriptor, cursor int) {
	k := partialKey{nodeID: nodeID, ns: ns}
	r.partial[k] = append(r.partial[k], partialEntry{descriptor: d, cursor: cursor})
}

// Resolutions returns the node ids resolved for d so far, in the
// order they were finalized. The returned slice is owned by the
// Resolver; callers must not retain it across a further OnNodeInserted
// call, since a match may reallocate the backing array.
func (r *Resolver) Resolutions(d *ast.ColumnDescriptor) []int32 {
	return r.resolutions[d]
}

// OnNodeInserted advances every partial resolution anchored at the new
// node's parent, per a just-inserted schema-tree node with id n and
// the given locator, in namespace ns. isAutoGen selects which tree the
// node belongs to, reported verbatim to a projection resolution.
func (r *Resolver) OnNodeInserted(n int32, loc schema.Locator, ns ast.Namespace, isAutoGen bool, onProjection ProjectionResolutionFunc) error {
	entries := r.partial[partialKey{nodeID: loc.ParentID, ns: ns}]
	for _, e := range entries {
		d := e.descriptor
		cursor := e.cursor
		cur := d.Tokens[cursor]
		next := cursor + 1
		isLast := next == len(d.Tokens)

		if !isLast && loc.Type == schema.Obj {
			r.interiorStep(n, loc.KeyName, ns, d, cur, cursor, next)
		}

		leafCond := isLast || (!isLast && d.Tokens[next].IsWildcard() && next+1 == len(d.Tokens))
		if leafCond {
			if err := r.leafStep(n, loc, ns, isAutoGen, d, cur, onProjection); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) interiorStep(n int32, keyName string, ns ast.Namespace, d *ast.ColumnDescriptor, cur ast.Token, cursor, next int) {
	if cur.IsWildcard() {
		// Wildcard may absorb more segments (stay at cursor) or have
		// matched exactly this segment (advance to next).
		r.insertPartial(n, ns, d, cursor)
		r.insertPartial(n, ns, d, next)
		return
	}
	if cur.Name != keyName {
		return
	}
	r.insertPartial(n, ns, d, next)
	if next < len(d.Tokens) && d.Tokens[next].IsWildcard() && next+1 != len(d.Tokens) {
		// Wildcard immediately following a literal match may also
		// absorb zero segments at this level.
		r.insertPartial(n, ns, d, next+1)
	}
}

func (r *Resolver) leafStep(n int32, loc schema.Locator, ns ast.Namespace, isAutoGen bool, d *ast.ColumnDescriptor, cur ast.Token, onProjection ProjectionResolutionFunc) error {
	if !cur.IsWildcard() && cur.Name != loc.KeyName {
		return nil
	}
	if !d.IsProjection {
		admitted := value.CandidateLiteralTypes(loc.Type)
		if d.TypeMask.Intersect(admitted).Empty() {
			return nil
		}
	}
	if d.IsProjection {
		if onProjection != nil {
			return onProjection(isAutoGen, n, d.OriginalPath)
		}
		return nil
	}
	r.resolutions[d] = append(r.resolutions[d], n)
	return nil
}
