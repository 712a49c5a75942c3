// Package schema implements the append-only, typed key-name tree that
// backs one namespace (auto-generated or user-generated) of an IR
// stream. A tree grows one node at a time as SchemaTreeNodeInsertion
// units are decoded; nodes are never removed or retyped.
package schema

import "errors"

// ErrDuplicateNode is returned by Insert when a node with the same
// locator already exists in the tree.
var ErrDuplicateNode = errors.New("schema: duplicate node")

// ErrNodeNotFound is returned by Node when an id has no corresponding node.
var ErrNodeNotFound = errors.New("schema: node not found")

// NodeType is the type tag of a schema-tree node.
type NodeType int

const (
	Obj NodeType = iota
	Int
	Float
	Bool
	Str
	UnstructuredArray
)

func (t NodeType) String() string {
	switch t {
	case Obj:
		return "Obj"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Bool:
		return "Bool"
	case Str:
		return "Str"
	case UnstructuredArray:
		return "UnstructuredArray"
	default:
		return "Unknown"
	}
}

// RootID is the reserved id of the distinguished root node. The root
// is its own parent and carries an empty key name.
const RootID int32 = 0

// Locator identifies a node uniquely within a tree: the id of its
// parent, its key name, and its type. The tree enforces at most one
// node per locator.
type Locator struct {
	ParentID int32
	KeyName  string
	Type     NodeType
}

// Node is one entry of a schema tree.
type Node struct {
	ID       int32
	ParentID int32
	KeyName  string
	Type     NodeType
}

// Tree is an ordered, append-only tree of typed named nodes. Ids are
// dense starting from RootID+1; the zero value is not usable, use New.
type Tree struct {
	nodes  []Node
	lookup map[Locator]int32
}

// New creates a tree containing only the root node.
func New() *Tree {
	t := &Tree{
		nodes:  make([]Node, 1, 64),
		lookup: make(map[Locator]int32, 64),
	}
	t.nodes[0] = Node{ID: RootID, ParentID: RootID, KeyName: "", Type: Obj}
	return t
}

// Insert adds a node for the given locator and returns its new id.
// Returns ErrDuplicateNode if the locator already exists. The caller
// must ensure ParentID refers to a node already present in the tree;
// Insert does not itself validate that (the deserializer's protocol
// decoder is the place that would reject a corrupt stream).
func (t *Tree) Insert(loc Locator) (int32, error) {
	if _, ok := t.lookup[loc]; ok {
		return 0, ErrDuplicateNode
	}
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:       id,
		ParentID: loc.ParentID,
		KeyName:  loc.KeyName,
		Type:     loc.Type,
	})
	t.lookup[loc] = id
	return id, nil
}

// HasNode reports whether a locator has already been inserted.
func (t *Tree) HasNode(loc Locator) bool {
	_, ok := t.lookup[loc]
	return ok
}

// Lookup returns the id for a locator, if present.
func (t *Tree) Lookup(loc Locator) (int32, bool) {
	id, ok := t.lookup[loc]
	return id, ok
}

// Node returns the node for the given id.
func (t *Tree) Node(id int32) (Node, error) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, ErrNodeNotFound
	}
	return t.nodes[id], nil
}

// Len returns the number of nodes in the tree, including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Nodes returns every node in insertion order (root first). The
// returned slice is owned by the caller but aliases no internal state
// that Insert would mutate in place, since Insert only appends.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Children returns the ids of every node directly under parentID,
// in insertion order. Used by callers walking the tree (e.g. the
// "schema" CLI dump); the resolver does not use this — it keys its
// partial resolutions on (parent node id, namespace) instead.
func (t *Tree) Children(parentID int32) []int32 {
	var out []int32
	for _, n := range t.nodes {
		if n.ID != RootID && n.ParentID == parentID {
			out = append(out, n.ID)
		}
	}
	return out
}

// FromNodes rebuilds a Tree from a previously captured Nodes() dump,
// e.g. one decoded from a schemacache snapshot. nodes must be in
// insertion order with the root (id RootID) first; ErrNodeNotFound is
// returned if any node's ParentID was not already present.
func FromNodes(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes:  make([]Node, 0, len(nodes)),
		lookup: make(map[Locator]int32, len(nodes)),
	}
	for i, n := range nodes {
		if int32(i) != n.ID {
			return nil, ErrNodeNotFound
		}
		if n.ID != RootID && int(n.ParentID) >= len(t.nodes) {
			return nil, ErrNodeNotFound
		}
		t.nodes = append(t.nodes, n)
		t.lookup[Locator{ParentID: n.ParentID, KeyName: n.KeyName, Type: n.Type}] = n.ID
	}
	return t, nil
}

// Path reconstructs the dotted key path from root to id, for
// diagnostics only (never used by matching logic, which works off
// node ids).
func (t *Tree) Path(id int32) ([]string, error) {
	var segments []string
	for id != RootID {
		n, err := t.Node(id)
		if err != nil {
			return nil, err
		}
		segments = append([]string{n.KeyName}, segments...)
		id = n.ParentID
	}
	return segments, nil
}
