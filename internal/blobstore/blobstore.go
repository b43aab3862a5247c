// Package blobstore defines the object-store capability the pipeline reads
// from and writes to, plus a factory/registry so that concrete backends
// (local filesystem, GCS) can register themselves at init time and the rest
// of the codebase stays backend-agnostic.
//
// The store is treated as append-only: the pipeline only ever puts new keys
// and never overwrites or deletes existing objects. Handles are passed
// explicitly into each component; there are no package-level client
// singletons.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Get for a missing key and by listings resolved
// against an empty prefix.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key     string
	Size    int64
	Updated time.Time
}

// Store is a handle to a single bucket of the object store.
type Store interface {
	// Put writes data under key with optional string metadata. Keys are
	// never overwritten by the pipeline; Put with an existing key is a
	// backend-level replace and callers avoid it by timestamping keys.
	Put(ctx context.Context, key string, data []byte, metadata map[string]string) error
	// Get reads the full object. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every object under prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Close releases backend resources.
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	// Kind selects the backend implementation: "fs" or "gcs".
	Kind string
	// Bucket is the bucket (gcs) or subdirectory (fs) name.
	Bucket string
	// Root is the base directory for the fs backend.
	Root string
}

// Factory builds a Store for one bucket.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) a backend factory for the given kind.
// It is called from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Store via the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported store.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a snapshot of the registered backend kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	return kinds
}
