package ticket

import (
	"bytes"
	"context"
	"fmt"

	"projukti-support-backend/internal/env"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore holds ticket attachments. Keys are scoped per ticket so a
// ticket's files can be listed and removed together.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
}

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStoreFromEnv(ctx context.Context) (*MinioStore, error) {
	endpoint := env.MustGet(env.MinioEndpoint)
	useSSL := env.GetOrDefault(env.MinioUseSSL, "false") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(env.MustGet(env.MinioAccessKey), env.MustGet(env.MinioSecretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	store := &MinioStore{
		client: client,
		bucket: env.MustGet(env.MinioBucket),
	}

	exists, err := client.BucketExists(ctx, store.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", store.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, store.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", store.bucket, err)
		}
	}

	return store, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, contentType string, data []byte) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}
