// Package eval implements the three-valued recursive evaluator: for an
// AST and one log event's node-id -> value maps, it decides True
// (matches), False (demonstrably does not), or Prune (the
// subexpression references only columns absent from this event or
// schema, so it supplies no information).
package eval

import "kvirsearch/internal/value"

// Pairs is a log event's node-id -> value map for one namespace.
// Node-id keys are unique within the map; iteration order is
// irrelevant to every rule below except pure-wildcard filters, which
// explicitly tolerate any order (spec.md §3/§4.6).
type Pairs map[int32]value.Value

// Event is one log event's (auto_gen, user_gen) pair maps.
type Event struct {
	AutoGen Pairs
	UserGen Pairs
}
