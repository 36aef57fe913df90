package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"nf_gateway/internal/config"
)

// S3Store implements BlobStore on Amazon S3 or an S3-compatible endpoint.
// Containers map to buckets.
type S3Store struct {
	client   *s3.Client
	presign  *s3.PresignClient
	endpoint string
}

// NewS3Store creates a new S3 blob store with static credentials. SDK-level
// retries are disabled.
func NewS3Store(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.AWSEndpoint, "/")
	if endpoint != "" {
		if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid aws_endpoint %q", cfg.AWSEndpoint)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:   client,
		presign:  s3.NewPresignClient(client),
		endpoint: endpoint,
	}, nil
}

// Name returns the provider name
func (s *S3Store) Name() string {
	return config.StorageAWS
}

// Put uploads data as a single object; S3 replaces existing keys.
func (s *S3Store) Put(ctx context.Context, container, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.locator(container, key), nil
}

// Sign returns a presigned GET URL
func (s *S3Store) Sign(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 object: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) locator(container, key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, container, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", container, key)
}
