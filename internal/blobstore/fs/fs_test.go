package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "bronze")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := "orders/year=2024/month=03/day=15/order_20240315_103000.parquet"
	if err := s.Put(ctx, key, []byte("payload"), map[string]string{"record_count": "2"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, err := Open(t.TempDir(), "bronze")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = s.Get(context.Background(), "orders/nope.parquet")
	if !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersPrefixAndMetadata(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "bronze")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(ctx, "orders/a.parquet", []byte("a"), map[string]string{"k": "v"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "orders/b.parquet", []byte("b"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "events/c.parquet", []byte("c"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.List(ctx, "orders/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d objects: %+v", len(got), got)
	}
	for _, obj := range got {
		if obj.Key != "orders/a.parquet" && obj.Key != "orders/b.parquet" {
			t.Errorf("unexpected key %q", obj.Key)
		}
		if obj.Size == 0 || obj.Updated.IsZero() {
			t.Errorf("missing object info: %+v", obj)
		}
	}
}

func TestListEmptyPrefix(t *testing.T) {
	s, err := Open(t.TempDir(), "bronze")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := s.List(context.Background(), "orders/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d objects", len(got))
	}
}

func TestFactoryRegistration(t *testing.T) {
	s, err := blobstore.New(context.Background(), blobstore.Config{
		Kind:   "fs",
		Bucket: "bronze",
		Root:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()
	if err := s.Put(context.Background(), "k", []byte("v"), nil); err != nil {
		t.Fatalf("put through factory: %v", err)
	}
}
