// Package lake owns the partitioned layout of the data lake: how batch files
// are keyed inside each layer's bucket, how batches are written, and how the
// most recent partition under a prefix is located.
//
// Key layouts:
//
//	raw    {type}s/year=Y/month=MM/day=DD/{type}_YYYYMMDD_HHMMSS.parquet
//	clean  {type}s_clean/year=Y/month=MM/day=DD/{type}s_clean_YYYYMMDD_HHMMSS.parquet
//	gold   {table}/year=Y/month=MM/{table}_YYYYMMDD.parquet
//
// The store is append-only; a stage never rewrites a prior partition.
// "Latest" is resolved by object write timestamp, with the key string as a
// deterministic tie-break.
package lake

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/parquetio"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// RawPrefix is the listing prefix of an entity's raw-layer partitions.
func RawPrefix(t entity.Type) string {
	return t.Plural() + "/"
}

// CleanPrefix is the listing prefix of an entity's cleaned-layer partitions.
func CleanPrefix(t entity.Type) string {
	return t.Plural() + "_clean/"
}

// RawKey builds the date-partitioned key for a raw batch written at ts.
func RawKey(t entity.Type, ts time.Time) string {
	return fmt.Sprintf("%s/year=%d/month=%02d/day=%02d/%s_%s.parquet",
		t.Plural(), ts.Year(), ts.Month(), ts.Day(), t, ts.Format("20060102_150405"))
}

// CleanKey builds the date-partitioned key for a cleaned batch written at ts.
func CleanKey(t entity.Type, ts time.Time) string {
	name := t.Plural() + "_clean"
	return fmt.Sprintf("%s/year=%d/month=%02d/day=%02d/%s_%s.parquet",
		name, ts.Year(), ts.Month(), ts.Day(), name, ts.Format("20060102_150405"))
}

// GoldKey builds the month-partitioned key for an aggregated table written at
// ts. Gold tables are daily snapshots, so the filename carries the date only.
func GoldKey(table string, ts time.Time) string {
	return fmt.Sprintf("%s/year=%d/month=%02d/%s_%s.parquet",
		table, ts.Year(), ts.Month(), table, ts.Format("20060102"))
}

// WriteBatch serializes a non-empty batch to Parquet and puts it at key.
// An empty batch is an invalid-input error: there is nothing to land and an
// empty partition would shadow the previous one as "latest".
func WriteBatch(ctx context.Context, store blobstore.Store, key string, recs []records.Record) error {
	if len(recs) == 0 {
		return apperrors.InvalidInputf("refusing to write empty batch to %s", key)
	}
	data, err := parquetio.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal batch for %s: %w", key, err)
	}
	meta := map[string]string{
		"record_count": strconv.Itoa(len(recs)),
		"written_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.Put(ctx, key, data, meta); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// ReadBatch fetches and deserializes the batch stored at key.
func ReadBatch(ctx context.Context, store blobstore.Store, key string) ([]records.Record, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	recs, err := parquetio.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return recs, nil
}

// LatestKey returns the key with the most recent write timestamp under
// prefix, or apperrors.ErrNotFound when the prefix is empty.
func LatestKey(ctx context.Context, store blobstore.Store, prefix string) (string, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("no objects under %s: %w", prefix, apperrors.ErrNotFound)
	}
	sort.Slice(objects, func(i, j int) bool {
		if !objects[i].Updated.Equal(objects[j].Updated) {
			return objects[i].Updated.After(objects[j].Updated)
		}
		return objects[i].Key > objects[j].Key
	})
	return objects[0].Key, nil
}

// ReadLatest resolves the latest partition under prefix and reads it.
func ReadLatest(ctx context.Context, store blobstore.Store, prefix string) ([]records.Record, string, error) {
	key, err := LatestKey(ctx, store, prefix)
	if err != nil {
		return nil, "", err
	}
	recs, err := ReadBatch(ctx, store, key)
	if err != nil {
		return nil, "", err
	}
	return recs, key, nil
}
