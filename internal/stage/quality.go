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
)

// maxCheckFailures bounds how many row-level failure messages a single table
// check reports.
const maxCheckFailures = 20

// QualityChecker verifies invariants over the latest gold partitions.
type QualityChecker struct {
	Gold blobstore.Store
	Log  *logger.Logger
}

// CheckResult reports one table's quality verdict.
type CheckResult struct {
	Table    string   `json:"table"`
	Passed   bool     `json:"passed"`
	RowCount int      `json:"row_count"`
	Failures []string `json:"failures,omitempty"`
}

// Run checks every gold table and returns one result per table. A missing
// partition or any failed row-level invariant marks the table failed; when
// at least one table fails the returned error wraps
// apperrors.ErrQualityCheckFailed so callers can gate promotion on it.
func (q QualityChecker) Run(ctx context.Context) ([]CheckResult, error) {
	start := time.Now()
	checks := map[string]func([]records.Record) []string{
		TableDailySales:         checkDailySales,
		TableCustomerLTV:        checkCustomerLTV,
		TableProductPerformance: checkProductPerformance,
	}

	var failed []string
	results := make([]CheckResult, 0, len(checks))
	for _, table := range GoldTables() {
		res := q.checkTable(ctx, table, checks[table])
		if !res.Passed {
			failed = append(failed, table)
		}
		results = append(results, res)
	}

	var err error
	if len(failed) > 0 {
		err = fmt.Errorf("quality checks failed for %v: %w", failed, apperrors.ErrQualityCheckFailed)
	}
	metrics.RecordStage("quality", "check_gold", err, time.Since(start))
	return results, err
}

func (q QualityChecker) checkTable(ctx context.Context, table string, check func([]records.Record) []string) CheckResult {
	res := CheckResult{Table: table}

	rows, key, err := lake.ReadLatest(ctx, q.Gold, table+"/")
	if errors.Is(err, apperrors.ErrNotFound) {
		res.Failures = []string{"no gold partition found"}
		return res
	}
	if err != nil {
		res.Failures = []string{err.Error()}
		return res
	}
	res.RowCount = len(rows)

	failures := check(rows)
	if len(failures) > maxCheckFailures {
		failures = append(failures[:maxCheckFailures],
			fmt.Sprintf("... and %d more", len(failures)-maxCheckFailures))
	}
	res.Failures = failures
	res.Passed = len(failures) == 0

	q.Log.Info("checked gold table",
		"table", table, "key", key, "rows", res.RowCount, "passed", res.Passed)
	return res
}

func checkDailySales(rows []records.Record) []string {
	var failures []string
	for i, row := range rows {
		if s, ok := row.String("order_date"); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("row %d: missing order_date", i))
		}
		if v, ok := row.Float("total_revenue"); !ok || v <= 0 {
			failures = append(failures, fmt.Sprintf("row %d: total_revenue must be positive", i))
		}
		if n, ok := row.Int("total_orders"); !ok || n <= 0 {
			failures = append(failures, fmt.Sprintf("row %d: total_orders must be positive", i))
		}
	}
	return failures
}

func checkCustomerLTV(rows []records.Record) []string {
	var failures []string
	for i, row := range rows {
		if s, ok := row.String("customer_id"); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("row %d: missing customer_id", i))
		}
		if v, ok := row.Float("lifetime_value"); !ok || v <= 0 {
			failures = append(failures, fmt.Sprintf("row %d: lifetime_value must be positive", i))
		}
		if s, ok := row.String("segment"); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("row %d: missing segment", i))
		}
	}
	return failures
}

func checkProductPerformance(rows []records.Record) []string {
	var failures []string
	for i, row := range rows {
		if s, ok := row.String("product_id"); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("row %d: missing product_id", i))
		}
		if v, ok := row.Float("total_revenue"); !ok || v < 0 {
			failures = append(failures, fmt.Sprintf("row %d: total_revenue must be non-negative", i))
		}
		if _, ok := row.Float("revenue_rank"); !ok {
			failures = append(failures, fmt.Sprintf("row %d: missing revenue_rank", i))
		}
	}
	return failures
}
