package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/lake"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/warehouse"
)

// TablePublisher loads one table's rows into the warehouse. Satisfied by
// *warehouse.Publisher.
type TablePublisher interface {
	Publish(ctx context.Context, spec warehouse.TableSpec, rows []records.Record) (int64, error)
}

// GoldPublisher loads the latest gold partitions into the warehouse.
type GoldPublisher struct {
	Gold      blobstore.Store
	Warehouse TablePublisher
	Log       *logger.Logger
}

// PublishResult summarizes the publish of one gold table.
type PublishResult struct {
	Table     string `json:"table"`
	Skipped   bool   `json:"skipped"`
	RowCount  int64  `json:"row_count"`
	SourceKey string `json:"source_key,omitempty"`
}

// Run publishes every gold table. Tables are independent: one failing does
// not stop the rest, and the returned error joins the per-table failures. A
// table with no gold partition yet is reported skipped, not failed.
func (p GoldPublisher) Run(ctx context.Context) ([]PublishResult, error) {
	start := time.Now()

	results := make([]PublishResult, 0, len(warehouse.Specs()))
	var errs []error
	for _, spec := range warehouse.Specs() {
		res := PublishResult{Table: spec.Name}

		rows, key, err := lake.ReadLatest(ctx, p.Gold, spec.Name+"/")
		if errors.Is(err, apperrors.ErrNotFound) {
			p.Log.Warn("no gold partition to publish", "table", spec.Name)
			res.Skipped = true
			results = append(results, res)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", spec.Name, err))
			results = append(results, res)
			continue
		}
		res.SourceKey = key

		copied, err := p.Warehouse.Publish(ctx, spec, rows)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", spec.Name, err))
			results = append(results, res)
			continue
		}
		res.RowCount = copied
		metrics.RecordRecords("publish", spec.Name, copied)
		p.Log.Info("published gold table", "table", spec.Name, "rows", copied, "source", key)
		results = append(results, res)
	}

	err := errors.Join(errs...)
	metrics.RecordStage("publish", "publish_gold", err, time.Since(start))
	return results, err
}
