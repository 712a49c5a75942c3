package irproto

import (
	"encoding/binary"
	"math"

	"kvirsearch/internal/schema"
	"kvirsearch/internal/value"
)

// readNodeID reads a node id in the stream's encoding width and
// narrows it to int32, the width the schema tree's dense ids actually
// need; overflow is corruption.
func readNodeID(r Reader, enc EncodingType) (int32, error) {
	b, err := r.TryReadExact(enc.NodeIDSize())
	if err != nil {
		return 0, err
	}
	var raw uint64
	if enc == EightByteEncoding {
		raw = binary.LittleEndian.Uint64(b)
	} else {
		raw = uint64(binary.LittleEndian.Uint32(b))
	}
	if raw > math.MaxInt32 {
		return 0, ErrCorrupt
	}
	return int32(raw), nil
}

// DeserializeSchemaTreeNodeInsertion decodes a SchemaTreeNodeInsertion
// unit's body: whether the node belongs to the auto_gen tree, and its
// locator (parent id, key name, node type).
func DeserializeSchemaTreeNodeInsertion(r Reader, tag byte, enc EncodingType) (isAutoGen bool, loc schema.Locator, err error) {
	isAutoGen = tag&tagAutoGenBit != 0

	parentID, err := readNodeID(r, enc)
	if err != nil {
		return false, schema.Locator{}, err
	}
	keyName, err := readShortString(r)
	if err != nil {
		return false, schema.Locator{}, err
	}
	typeBuf, err := r.TryReadExact(1)
	if err != nil {
		return false, schema.Locator{}, err
	}
	nodeType := schema.NodeType(typeBuf[0])
	if nodeType < schema.Obj || nodeType > schema.UnstructuredArray {
		return false, schema.Locator{}, ErrCorrupt
	}

	return isAutoGen, schema.Locator{ParentID: parentID, KeyName: keyName, Type: nodeType}, nil
}

// DeserializeUtcOffsetChange decodes a UtcOffsetChange unit's body: the
// new running UTC offset in signed nanoseconds.
func DeserializeUtcOffsetChange(r Reader) (newOffsetNs int64, err error) {
	return readInt64(r)
}

// NodeValuePair is one entry of a log event's node-id -> value map.
type NodeValuePair struct {
	NodeID int32
	Value  value.Value
}

func readPairCount(r Reader, width int) (int, error) {
	b, err := r.TryReadExact(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int(b[0]), nil
	case 2:
		return int(binary.LittleEndian.Uint16(b)), nil
	default:
		return int(binary.LittleEndian.Uint32(b)), nil
	}
}

func readPairs(r Reader, enc EncodingType, width int) ([]NodeValuePair, error) {
	count, err := readPairCount(r, width)
	if err != nil {
		return nil, err
	}
	pairs := make([]NodeValuePair, count)
	for i := range pairs {
		nodeID, err := readNodeID(r, enc)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(r)
		if err != nil {
			return nil, err
		}
		pairs[i] = NodeValuePair{NodeID: nodeID, Value: v}
	}
	return pairs, nil
}

// DeserializeKvPairLogEvent decodes a LogEvent unit's body: the
// auto_gen and user_gen node-id -> value pair lists, in that order.
func DeserializeKvPairLogEvent(r Reader, tag byte, enc EncodingType) (autoGenPairs, userGenPairs []NodeValuePair, err error) {
	width, err := countWidth(tag & lowNibble)
	if err != nil {
		return nil, nil, err
	}
	autoGenPairs, err = readPairs(r, enc, width)
	if err != nil {
		return nil, nil, err
	}
	userGenPairs, err = readPairs(r, enc, width)
	if err != nil {
		return nil, nil, err
	}
	return autoGenPairs, userGenPairs, nil
}
