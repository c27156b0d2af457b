package storage

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
)

const (
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

// ProviderConfig selects and configures a BlobStore.
type ProviderConfig struct {
	Provider   string
	Bucket     string
	S3Endpoint string
	CDNDomain  string

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioSecure     bool
	MinioPublicBase string
}

// Open builds the configured store. MinIO buckets are created on demand;
// S3 buckets are expected to exist.
func Open(ctx context.Context, pc ProviderConfig, awsCfg sdkaws.Config) (BlobStore, error) {
	switch pc.Provider {
	case ProviderMinio:
		client, err := NewMinioClient(pc.MinioEndpoint, pc.MinioAccessKey, pc.MinioSecretKey, pc.MinioSecure)
		if err != nil {
			return nil, err
		}
		store := NewMinioStore(client, NewMinioLocator(pc.Bucket, pc.MinioEndpoint, pc.MinioSecure, pc.MinioPublicBase))
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case ProviderS3, "":
		client := awspkg.NewS3Client(awsCfg, pc.S3Endpoint)
		return NewS3Store(client, NewS3Locator(pc.Bucket, awsCfg.Region, pc.S3Endpoint, pc.CDNDomain)), nil
	default:
		return nil, fmt.Errorf("unknown blob provider %q", pc.Provider)
	}
}
