// Package docstore retrieves extracted document text from object storage.
// Text extraction itself happens upstream; this engine only reads the
// plain-text artifacts the extractor left behind.
package docstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pabg92/astralabs-sub005/internal/config"
)

type Store struct {
	client *minio.Client
	bucket string
}

func New(cfg config.MinioConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// DocumentText reads the full extracted text stored under key. A missing
// object is a hard error: without the document text no clause in the
// batch can be located.
func (s *Store) DocumentText(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to fetch document text %q: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read document text %q: %w", key, err)
	}
	return string(data), nil
}
