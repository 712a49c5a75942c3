package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// openGCS opens a "gs://bucket/object" URI using Application Default
// Credentials.
func openGCS(ctx context.Context, uri string) (io.ReadCloser, string, error) {
	rest := strings.TrimPrefix(uri, "gs://")
	bucket, object, err := splitBucketKey(rest)
	if err != nil {
		return nil, "", err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("source: new gcs client: %w", err)
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, "", fmt.Errorf("source: gcs read %s/%s: %w", bucket, object, err)
	}
	return &gcsReadCloser{r: r, client: client}, object, nil
}

// gcsReadCloser closes both the object reader and the client that
// opened it, since storage.NewClient is meant to be reused but this
// package opens exactly one object per call.
type gcsReadCloser struct {
	r      *storage.Reader
	client *storage.Client
}

func (g *gcsReadCloser) Read(p []byte) (int, error) { return g.r.Read(p) }

func (g *gcsReadCloser) Close() error {
	err := g.r.Close()
	if cerr := g.client.Close(); err == nil {
		err = cerr
	}
	return err
}
