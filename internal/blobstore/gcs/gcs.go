// Package gcs implements the blobstore contract on Google Cloud Storage.
// Credentials resolve through Application Default Credentials; an emulator
// can be selected with STORAGE_EMULATOR_HOST as usual for the client library.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
)

func init() {
	blobstore.Register("gcs", func(ctx context.Context, cfg blobstore.Config) (blobstore.Store, error) {
		return Open(ctx, cfg.Bucket)
	})
}

// Store is a GCS-bucket-backed blobstore.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// Open dials GCS and binds the store to one bucket.
func Open(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(bucket)}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if len(metadata) > 0 {
		w.Metadata = metadata
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: close %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("gcs: open %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]blobstore.ObjectInfo, error) {
	var out []blobstore.ObjectInfo
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: list %s: %w", prefix, err)
		}
		out = append(out, blobstore.ObjectInfo{
			Key:     attrs.Name,
			Size:    attrs.Size,
			Updated: attrs.Updated,
		})
	}
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }
