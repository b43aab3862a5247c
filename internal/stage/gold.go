package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/aggregate"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/lake"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// Gold table names. These double as the top-level key prefix in the gold
// bucket and as the warehouse table names.
const (
	TableDailySales         = "daily_sales_summary"
	TableCustomerLTV        = "customer_lifetime_value"
	TableProductPerformance = "product_performance"
)

// GoldTables lists every gold table the builder produces.
func GoldTables() []string {
	return []string{TableDailySales, TableCustomerLTV, TableProductPerformance}
}

// GoldBuilder aggregates the latest cleaned partitions into the gold tables.
type GoldBuilder struct {
	Silver blobstore.Store
	Gold   blobstore.Store
	Log    *logger.Logger
	// Now supplies the invocation timestamp; defaults to time.Now.
	Now func() time.Time
}

// TableResult summarizes the build of one gold table.
type TableResult struct {
	Table     string `json:"table"`
	RowCount  int    `json:"row_count"`
	OutputKey string `json:"output_key,omitempty"`
}

// Run reads the latest cleaned orders (required) and products (optional,
// product metadata degrades gracefully when absent), computes the three gold
// tables, and writes each independently. A failed table write does not stop
// the others; the returned error joins the per-table failures, so a retry
// after a partial failure simply rebuilds everything from the same silver
// inputs.
func (g GoldBuilder) Run(ctx context.Context) ([]TableResult, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	start := now()

	var runErr error
	defer func() { metrics.RecordStage("gold", "build_tables", runErr, time.Since(start)) }()

	orders, ordersKey, err := lake.ReadLatest(ctx, g.Silver, lake.CleanPrefix(entity.Order))
	if err != nil {
		runErr = fmt.Errorf("read cleaned orders: %w", err)
		return nil, runErr
	}

	products, productsKey, err := lake.ReadLatest(ctx, g.Silver, lake.CleanPrefix(entity.Product))
	if errors.Is(err, apperrors.ErrNotFound) {
		g.Log.Warn("no cleaned products partition, building without product metadata")
		products, productsKey, err = nil, "", nil
	}
	if err != nil {
		runErr = fmt.Errorf("read cleaned products: %w", err)
		return nil, runErr
	}

	g.Log.Info("building gold tables",
		"orders", len(orders), "orders_key", ordersKey,
		"products", len(products), "products_key", productsKey,
	)

	tables := []struct {
		name string
		rows []records.Record
	}{
		{TableDailySales, aggregate.DailySalesSummary(orders)},
		{TableCustomerLTV, aggregate.CustomerLTV(orders, start)},
		{TableProductPerformance, aggregate.ProductPerformance(orders, products)},
	}

	results := make([]TableResult, 0, len(tables))
	var errs []error
	for _, tbl := range tables {
		res := TableResult{Table: tbl.name, RowCount: len(tbl.rows)}
		key := lake.GoldKey(tbl.name, start.UTC())
		if err := lake.WriteBatch(ctx, g.Gold, key, tbl.rows); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", tbl.name, err))
			results = append(results, res)
			continue
		}
		res.OutputKey = key
		metrics.RecordPartitions("gold", 1)
		metrics.RecordRecords("gold", tbl.name, int64(len(tbl.rows)))
		g.Log.Info("wrote gold table", "table", tbl.name, "rows", len(tbl.rows), "key", key)
		results = append(results, res)
	}
	runErr = errors.Join(errs...)
	return results, runErr
}
