package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"nf_gateway/internal/config"
)

// AzureBlobStore implements BlobStore on Azure Blob Storage. Containers map
// to blob containers.
type AzureBlobStore struct {
	client *azblob.Client
}

// NewAzureBlobStore creates a new Azure blob store from a connection string.
// The account key inside the connection string is what signs SAS URLs.
func NewAzureBlobStore(cfg config.CloudConfig) (BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Azure Blob Storage: %w", err)
	}
	return &AzureBlobStore{client: client}, nil
}

// Name returns the provider name
func (s *AzureBlobStore) Name() string {
	return config.StorageAzure
}

// Put uploads data as a block blob; an existing blob is overwritten.
func (s *AzureBlobStore) Put(ctx context.Context, container, key string, data []byte) (string, error) {
	if _, err := s.client.UploadBuffer(ctx, container, key, data, nil); err != nil {
		return "", fmt.Errorf("failed to upload to Azure Blob Storage: %w", err)
	}
	return s.client.ServiceClient().NewContainerClient(container).NewBlobClient(key).URL(), nil
}

// Sign returns a read-only SAS URL for the blob
func (s *AzureBlobStore) Sign(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	blob := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(key)
	signed, err := blob.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign Azure blob: %w", err)
	}
	return signed, nil
}
