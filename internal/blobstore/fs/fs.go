// Package fs implements the blobstore contract over a local directory tree.
// It backs local pipeline runs and serves as the storage double in tests.
//
// Layout: {root}/{bucket}/{key}, with metadata persisted next to the object
// as {key}.meta.json so listings and round-trips behave like a real object
// store.
package fs

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
)

const metaSuffix = ".meta.json"

func init() {
	blobstore.Register("fs", func(ctx context.Context, cfg blobstore.Config) (blobstore.Store, error) {
		return Open(cfg.Root, cfg.Bucket)
	})
}

// Store is a directory-backed blobstore bucket.
type Store struct {
	dir string
}

// Open creates the bucket directory if needed and returns a Store for it.
func Open(root, bucket string) (*Store, error) {
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path+metaSuffix, raw, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, blobstore.ErrNotFound
	}
	return data, err
}

func (s *Store) List(ctx context.Context, prefix string) ([]blobstore.ObjectInfo, error) {
	var out []blobstore.ObjectInfo
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, blobstore.ObjectInfo{
			Key:     key,
			Size:    info.Size(),
			Updated: info.ModTime(),
		})
		return nil
	})
	return out, err
}

func (s *Store) Close() error { return nil }
