// Package schemacache persists a schema tree's node dump to a small
// header-prefixed file and loads it back. `kvirsearch schema
// --cache-dir` writes snapshots; no command loads one to seed a
// deserializer, so `kvirsearch tail` always replays the stream's
// SchemaTreeNodeInsertion units. The header layout (signature, type, version, flags)
// follows internal/format's index-file convention; the payload is the
// node list msgpack-encoded.
package schemacache

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"kvirsearch/internal/format"
	"kvirsearch/internal/schema"
)

// ErrNamespaceMismatch is returned by Load when a snapshot's recorded
// namespace flag does not match the namespace it was asked to fill.
var ErrNamespaceMismatch = errors.New("schemacache: namespace mismatch")

const (
	version = 1

	// Flags bit distinguishing which namespace a snapshot holds.
	flagUserGen = 0x01
)

type snapshot struct {
	Nodes []schema.Node `msgpack:"nodes"`
}

// Save writes tree's current node dump to path, prefixed by a
// format.Header of TypeSchemaCache. isUserGen selects the flag bit
// recorded for Load's namespace check.
func Save(path string, tree *schema.Tree, isUserGen bool) error {
	var flags byte
	if isUserGen {
		flags = flagUserGen
	}
	h := format.Header{Type: format.TypeSchemaCache, Version: version, Flags: flags}

	payload, err := msgpack.Marshal(snapshot{Nodes: tree.Nodes()})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	hdr := h.Encode()
	buf.Write(hdr[:])
	buf.Write(payload)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load reads a snapshot previously written by Save and rebuilds a
// schema.Tree from it. isUserGen must match the namespace the
// snapshot was saved for.
func Load(path string, isUserGen bool) (*schema.Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < format.HeaderSize {
		return nil, format.ErrHeaderTooSmall
	}
	h, err := format.DecodeAndValidate(raw[:format.HeaderSize], format.TypeSchemaCache, version)
	if err != nil {
		return nil, err
	}
	wantFlag := h.Flags&flagUserGen != 0
	if wantFlag != isUserGen {
		return nil, ErrNamespaceMismatch
	}

	var snap snapshot
	dec := msgpack.NewDecoder(bytes.NewReader(raw[format.HeaderSize:]))
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return schema.New(), nil
		}
		return nil, err
	}
	return schema.FromNodes(snap.Nodes)
}
