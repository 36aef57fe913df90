package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"nf_gateway/internal/config"
)

// GCSStore implements BlobStore on Google Cloud Storage. Containers map to
// buckets. Without gcp_credentials_path the ambient application default
// credentials are used.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a new Cloud Storage blob store
func NewGCSStore(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
	var opts []option.ClientOption
	if cfg.GCPCredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Name returns the provider name
func (s *GCSStore) Name() string {
	return config.StorageGCP
}

// Put writes data as a new object generation, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, container, key string, data []byte) (string, error) {
	w := s.client.Bucket(container).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write Cloud Storage object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to Cloud Storage: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", container, key), nil
}

// Sign returns a V4 signed GET URL
func (s *GCSStore) Sign(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	signed, err := s.client.Bucket(container).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign Cloud Storage object: %w", err)
	}
	return signed, nil
}

// Close releases the underlying client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
