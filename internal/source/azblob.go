package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// openAzblob opens an "azblob://container/blob" URI against the
// storage account named by AZURE_STORAGE_CONNECTION_STRING, the
// simplest of the three cloud credential paths and the one that needs
// no extra identity dependency beyond the azblob SDK itself.
func openAzblob(ctx context.Context, uri string) (io.ReadCloser, string, error) {
	rest := strings.TrimPrefix(uri, "azblob://")
	container, blob, err := splitBucketKey(rest)
	if err != nil {
		return nil, "", err
	}

	connStr := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	if connStr == "" {
		return nil, "", fmt.Errorf("source: AZURE_STORAGE_CONNECTION_STRING is not set")
	}
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, "", fmt.Errorf("source: new azblob client: %w", err)
	}
	resp, err := client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, "", fmt.Errorf("source: azblob download %s/%s: %w", container, blob, err)
	}
	return resp.Body, blob, nil
}
