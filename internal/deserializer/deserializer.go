// Package deserializer drives the single-threaded, synchronous step
// loop that turns an irproto byte stream into calls against a
// caller-supplied UnitHandler, keeping the two schema trees, the
// running UTC offset, and the query resolver in lockstep as the
// stream advances (spec.md §4.7, §5).
package deserializer

import (
	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

// UnitHandler receives one callback per decoded IR unit. Handler
// errors abort only the Step call that produced them; the
// Deserializer itself is left in a consistent state (the schema trees
// and resolver have already observed the unit, matching spec.md §7's
// "only the current step is abandoned" rule) so a caller may choose to
// keep going on the next Step.
type UnitHandler interface {
	HandleSchemaTreeNodeInsertion(isAutoGen bool, nodeID int32, loc schema.Locator) error
	HandleUtcOffsetChange(newOffsetNs int64) error
	HandleLogEvent(event Event, utcOffsetNs int64) error
	HandleEndOfStream() error
}

// ProjectionResolutionHandler is an optional extension a UnitHandler
// may also implement to be notified when a projection descriptor's
// path resolves against a newly inserted schema node.
type ProjectionResolutionHandler interface {
	HandleProjectionResolution(isAutoGen bool, nodeID int32, originalKeyPath string) error
}

// Event is one log event's (auto_gen, user_gen) node-id -> value maps,
// handed to HandleLogEvent.
type Event struct {
	AutoGen map[int32]value.Value
	UserGen map[int32]value.Value
}

// Deserializer is one IR stream's decode state: the reader, the
// node-id encoding width fixed by the preamble, both schema trees, the
// running UTC offset, and the resolver tracking any query/projection
// column descriptors registered for this stream.
type Deserializer struct {
	r        irproto.Reader
	enc      irproto.EncodingType
	autoTree *schema.Tree
	userTree *schema.Tree
	resolver *resolver.Resolver
	handler  UnitHandler

	utcOffsetNs int64
	finished    bool
}

// New builds a Deserializer over a reader already past the preamble
// (the caller decodes GetEncodingType and then DeserializePreamble first,
// since those are one-time stream-level steps, not per-unit ones).
func New(r irproto.Reader, enc irproto.EncodingType, res *resolver.Resolver, handler UnitHandler) *Deserializer {
	return &Deserializer{
		r:        r,
		enc:      enc,
		autoTree: schema.New(),
		userTree: schema.New(),
		resolver: res,
		handler:  handler,
	}
}

// AutoGenTree and UserGenTree expose the live schema trees, e.g. for
// an eval.Evaluator built against the same Deserializer instance.
func (d *Deserializer) AutoGenTree() *schema.Tree { return d.autoTree }
func (d *Deserializer) UserGenTree() *schema.Tree { return d.userTree }

// UtcOffsetNs returns the currently active UTC offset, updated by the
// most recent UtcOffsetChange unit.
func (d *Deserializer) UtcOffsetNs() int64 { return d.utcOffsetNs }

// Finished reports whether an EndOfStream unit has already been
// processed.
func (d *Deserializer) Finished() bool { return d.finished }

// Step decodes and dispatches exactly one IR unit, returning its kind.
// Returns kverrors.ErrAlreadyFinished if the stream already reached
// EndOfStream. A non-nil irproto error means the stream is corrupt or
// truncated and the Deserializer must not be stepped again; a non-nil
// *kverrors.HandlerError means only this unit's handler callback
// failed.
func (d *Deserializer) Step() (irproto.UnitKind, error) {
	if d.finished {
		return 0, kverrors.ErrAlreadyFinished
	}

	tag, err := irproto.DeserializeTag(d.r)
	if err != nil {
		return 0, err
	}
	kind, err := irproto.UnitKindOf(tag)
	if err != nil {
		return 0, err
	}

	switch kind {
	case irproto.UnitSchemaTreeNodeInsertion:
		return kind, d.stepSchemaTreeNodeInsertion(tag)
	case irproto.UnitUtcOffsetChange:
		return kind, d.stepUtcOffsetChange()
	case irproto.UnitLogEvent:
		return kind, d.stepLogEvent(tag)
	case irproto.UnitEndOfStream:
		return kind, d.stepEndOfStream()
	default:
		return kind, irproto.ErrUnsupportedTag
	}
}

func (d *Deserializer) stepSchemaTreeNodeInsertion(tag byte) error {
	isAutoGen, loc, err := irproto.DeserializeSchemaTreeNodeInsertion(d.r, tag, d.enc)
	if err != nil {
		return err
	}

	tree, ns := d.namespaceTree(isAutoGen)
	id, err := tree.Insert(loc)
	if err != nil {
		return kverrors.ErrDuplicateNode
	}

	var onProjection resolver.ProjectionResolutionFunc
	if ph, ok := d.handler.(ProjectionResolutionHandler); ok {
		onProjection = ph.HandleProjectionResolution
	}
	if err := d.resolver.OnNodeInserted(id, loc, ns, isAutoGen, onProjection); err != nil {
		return &kverrors.HandlerError{Unit: "projection_resolution", Err: err}
	}

	if err := d.handler.HandleSchemaTreeNodeInsertion(isAutoGen, id, loc); err != nil {
		return &kverrors.HandlerError{Unit: "schema_tree_node_insertion", Err: err}
	}
	return nil
}

func (d *Deserializer) stepUtcOffsetChange() error {
	newOffsetNs, err := irproto.DeserializeUtcOffsetChange(d.r)
	if err != nil {
		return err
	}
	d.utcOffsetNs = newOffsetNs
	if err := d.handler.HandleUtcOffsetChange(newOffsetNs); err != nil {
		return &kverrors.HandlerError{Unit: "utc_offset_change", Err: err}
	}
	return nil
}

func (d *Deserializer) stepLogEvent(tag byte) error {
	autoPairs, userPairs, err := irproto.DeserializeKvPairLogEvent(d.r, tag, d.enc)
	if err != nil {
		return err
	}
	event := Event{
		AutoGen: pairsToMap(autoPairs),
		UserGen: pairsToMap(userPairs),
	}
	if err := d.handler.HandleLogEvent(event, d.utcOffsetNs); err != nil {
		return &kverrors.HandlerError{Unit: "log_event", Err: err}
	}
	return nil
}

func (d *Deserializer) stepEndOfStream() error {
	d.finished = true
	if err := d.handler.HandleEndOfStream(); err != nil {
		return &kverrors.HandlerError{Unit: "end_of_stream", Err: err}
	}
	return nil
}

func (d *Deserializer) namespaceTree(isAutoGen bool) (*schema.Tree, ast.Namespace) {
	if isAutoGen {
		return d.autoTree, ast.AutoGen
	}
	return d.userTree, ast.UserGen
}

func pairsToMap(pairs []irproto.NodeValuePair) map[int32]value.Value {
	m := make(map[int32]value.Value, len(pairs))
	for _, p := range pairs {
		m[p.NodeID] = p.Value
	}
	return m
}
