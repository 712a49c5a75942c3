package irproto

import (
	"errors"
	"io"
)

// Reader is the byte-source contract the decoder is built against
// (spec.md §6): stateful, forward-only, no seek required.
type Reader interface {
	// TryReadExact reads exactly n bytes or returns ErrTruncated.
	TryReadExact(n int) ([]byte, error)
}

// NewReader adapts a plain io.Reader (a file, a network socket, a
// zstd decompression stream) to Reader.
func NewReader(r io.Reader) Reader {
	return &ioReader{r: r}
}

type ioReader struct {
	r io.Reader
}

func (rd *ioReader) TryReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf, nil
}
