package irproto

import "errors"

// Error taxonomy exposed at the decoder boundary (spec.md §6). Every
// decode failure is fatal for the stream: callers must discard the
// reader and the deserializer built on top of it.
var (
	ErrTruncated           = errors.New("irproto: truncated stream")
	ErrCorrupt             = errors.New("irproto: corrupt ir unit")
	ErrUnsupportedVersion  = errors.New("irproto: unsupported preamble version")
	ErrUnsupportedMetadata = errors.New("irproto: unsupported preamble metadata")
	ErrUnsupportedTag      = errors.New("irproto: unsupported ir unit tag")
)
