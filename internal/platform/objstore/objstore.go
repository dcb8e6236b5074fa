// Package objstore fetches airgap bundles from an in-LAN S3-compatible
// object store (MinIO and friends). This is the only network access the
// deployer performs besides SSH, and it stays inside the airgapped segment.
package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imamik/airgapctl/internal/config"
)

// Client wraps the S3 API for bundle retrieval.
type Client struct {
	s3 *s3.Client
}

// NewClient builds a client against the configured internal endpoint.
func NewClient(ctx context.Context, cfg *config.Objstore) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1" // MinIO default; the value is not interpreted
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // MinIO and most self-hosted stores require path style
	})

	return &Client{s3: client}, nil
}

// ParseURL splits an s3://bucket/key reference.
func ParseURL(raw string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return "", "", fmt.Errorf("bundle source %q is not an s3:// URL", raw)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("bundle source %q must name a bucket and key", raw)
	}
	return bucket, key, nil
}

// Fetch downloads s3://bucket/key to destPath.
func (c *Client) Fetch(ctx context.Context, source, destPath string) error {
	bucket, key, err := ParseURL(source)
	if err != nil {
		return err
	}

	obj, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer func() { _ = obj.Body.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dest, obj.Body); err != nil {
		_ = dest.Close()
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	return nil
}
