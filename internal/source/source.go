// Package source resolves a CLI-supplied URI to a readable IR byte
// stream (spec.md §1's "decoder, not an ingestion pipeline" framing:
// this package only ever opens a stream for reading, never writes
// one). It mirrors the teacher's internal/chunk/file/reader.go's
// thin io.ReaderAt/io.Closer wrapping, generalized from one local-file
// backend to scheme-dispatched local, stdin, and cloud-object-store
// backends, with an optional transparent zstd unwrap.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Open resolves uri to a readable, closeable IR byte stream. Supported
// schemes: "file://" or a bare path, "-" for stdin, "s3://", "gs://",
// and "azblob://". A ".zst" suffix on the path/key component
// transparently unwraps a zstd-compressed stream.
func Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	rc, name, err := openScheme(ctx, uri)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(name, ".zst") {
		return wrapZstd(rc)
	}
	return rc, nil
}

func openScheme(ctx context.Context, uri string) (rc io.ReadCloser, name string, err error) {
	switch {
	case uri == "-":
		return io.NopCloser(os.Stdin), uri, nil
	case strings.HasPrefix(uri, "file://"):
		path := strings.TrimPrefix(uri, "file://")
		f, err := os.Open(path)
		return f, path, err
	case strings.HasPrefix(uri, "s3://"):
		return openS3(ctx, uri)
	case strings.HasPrefix(uri, "gs://"):
		return openGCS(ctx, uri)
	case strings.HasPrefix(uri, "azblob://"):
		return openAzblob(ctx, uri)
	case strings.Contains(uri, "://"):
		return nil, "", fmt.Errorf("source: unsupported scheme in %q", uri)
	default:
		f, err := os.Open(uri)
		return f, uri, err
	}
}

// zstdReadCloser adapts a *zstd.Decoder (which exposes Close with no
// return value) to io.ReadCloser, closing the underlying stream too.
type zstdReadCloser struct {
	dec *zstd.Decoder
	src io.ReadCloser
}

func wrapZstd(src io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("source: open zstd stream: %w", err)
	}
	return &zstdReadCloser{dec: dec, src: src}, nil
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.src.Close()
}

// splitBucketKey splits "bucket/key/with/slashes" into its bucket and
// key parts, as used by the s3://, gs://, and azblob:// schemes after
// their prefix is trimmed.
func splitBucketKey(rest string) (bucket, key string, err error) {
	i := strings.IndexByte(rest, '/')
	if i < 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("source: expected bucket/key, got %q", rest)
	}
	return rest[:i], rest[i+1:], nil
}
