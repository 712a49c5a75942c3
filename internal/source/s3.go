package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// openS3 opens an "s3://bucket/key" URI using the default AWS
// credential chain (environment, shared config, or instance/task
// role); no profile is selected by configuration.
func openS3(ctx context.Context, uri string) (io.ReadCloser, string, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, err := splitBucketKey(rest)
	if err != nil {
		return nil, "", err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("source: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("source: s3 GetObject %s/%s: %w", bucket, key, err)
	}
	return out.Body, key, nil
}
