package irproto

import (
	"encoding/binary"
	"encoding/json"
)

// EncodingType is the stream-wide node-id width, fixed by the
// preamble's first byte and unchanged for the rest of the stream.
type EncodingType byte

const (
	FourByteEncoding  EncodingType = 0
	EightByteEncoding EncodingType = 1
)

// NodeIDSize returns the byte width of a node id under this encoding.
func (e EncodingType) NodeIDSize() int {
	if e == EightByteEncoding {
		return 8
	}
	return 4
}

const metadataTypeJSON byte = 0x01

// Metadata is the preamble's decoded JSON blob.
type Metadata struct {
	Version             string
	UserDefinedMetadata map[string]any
}

// SupportedVersionFunc decides whether a preamble's version string is
// acceptable. Injected rather than hardcoded so callers can support
// more than one wire version without a code change.
type SupportedVersionFunc func(version string) bool

// DefaultSupportedVersion accepts exactly "v0.1.0", the only version
// this decoder was built against.
func DefaultSupportedVersion(version string) bool { return version == "v0.1.0" }

// GetEncodingType reads the preamble's one-byte encoding-variant
// indicator.
func GetEncodingType(r Reader) (EncodingType, error) {
	b, err := r.TryReadExact(1)
	if err != nil {
		return 0, err
	}
	switch EncodingType(b[0]) {
	case FourByteEncoding, EightByteEncoding:
		return EncodingType(b[0]), nil
	default:
		return 0, ErrCorrupt
	}
}

// DeserializePreamble reads the metadata-type tag and length-prefixed
// metadata blob, validates it, and returns the decoded Metadata.
func DeserializePreamble(r Reader, supported SupportedVersionFunc) (Metadata, error) {
	typeTag, err := r.TryReadExact(1)
	if err != nil {
		return Metadata{}, err
	}
	if typeTag[0] != metadataTypeJSON {
		return Metadata{}, ErrUnsupportedMetadata
	}

	lenBytes, err := r.TryReadExact(4)
	if err != nil {
		return Metadata{}, err
	}
	length := binary.LittleEndian.Uint32(lenBytes)

	body, err := r.TryReadExact(int(length))
	if err != nil {
		return Metadata{}, err
	}

	var raw struct {
		Version             *string        `json:"version"`
		UserDefinedMetadata map[string]any `json:"user_defined_metadata"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Metadata{}, ErrUnsupportedMetadata
	}
	if raw.Version == nil {
		return Metadata{}, ErrUnsupportedMetadata
	}
	if supported == nil {
		supported = DefaultSupportedVersion
	}
	if !supported(*raw.Version) {
		return Metadata{}, ErrUnsupportedVersion
	}

	return Metadata{
		Version:             *raw.Version,
		UserDefinedMetadata: raw.UserDefinedMetadata,
	}, nil
}
