package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	PublicURLLocator
	client *minio.Client
}

// NewMinioClient connects to a MinIO (or any S3 compatible) endpoint.
func NewMinioClient(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

func NewMinioStore(client *minio.Client, locator PublicURLLocator) *MinioStore {
	return &MinioStore{PublicURLLocator: locator, client: client}
}

func (s *MinioStore) Bucket() string { return s.PublicURLLocator.Bucket }

// EnsureBucket creates the bucket on first start against a fresh MinIO.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.Bucket())
	if err != nil {
		return fmt.Errorf("minio bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.Bucket(), minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio make bucket: %w", err)
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, ref BlobRef, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.Bucket(), ref.Key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", ref.Key, err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, ref BlobRef) error {
	if err := s.client.RemoveObject(ctx, s.Bucket(), ref.Key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete %s: %w", ref.Key, err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, prefix string, fn func(ObjectInfo) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("minio list %s: %w", prefix, obj.Err)
		}
		if err := fn(ObjectInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified}); err != nil {
			return err
		}
	}
	return nil
}
