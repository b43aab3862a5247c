package stage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore/fs"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/lake"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/warehouse"
)

func testStores(t *testing.T) (bronze, silver, gold blobstore.Store) {
	t.Helper()
	root := t.TempDir()
	var err error
	bronze, err = fs.Open(root, "bronze")
	if err != nil {
		t.Fatal(err)
	}
	silver, err = fs.Open(root, "silver")
	if err != nil {
		t.Fatal(err)
	}
	gold, err = fs.Open(root, "gold")
	if err != nil {
		t.Fatal(err)
	}
	return bronze, silver, gold
}

func stageNow() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func rawOrders() []records.Record {
	return []records.Record{
		{
			"order_id": "O1", "customer_id": "C1", "product_id": "P1",
			"order_date": "2024-03-14T09:00:00", "quantity": float64(2),
			"total_amount": 100.0, "status": "confirmed",
		},
		{
			"order_id": "O1", "customer_id": "C1", "product_id": "P1",
			"order_date": "2024-03-14T09:05:00", "quantity": float64(2),
			"total_amount": 200.0, "status": "confirmed",
		},
		{
			"order_id": "O2", "customer_id": "C2", "product_id": "P2",
			"order_date": "2024-03-14T11:00:00", "quantity": float64(1),
			"total_amount": -50.0, "status": "pending",
		},
		{
			"order_id": "O3", "customer_id": "C2", "product_id": "P1",
			"order_date": "2024-03-14T12:00:00", "quantity": float64(1),
			"total_amount": 650.0, "status": "delivered",
		},
	}
}

func TestIngestorRun(t *testing.T) {
	ctx := context.Background()
	bronze, _, _ := testStores(t)
	ing := Ingestor{
		Bronze: bronze, Source: "test", Environment: "dev",
		Log: logger.NewNop(), Now: stageNow,
	}

	batch := rawOrders()
	batch = append(batch, records.Record{"order_id": "O4"}) // missing required fields
	res, err := ing.Run(ctx, "order", batch)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ValidCount != 3 || res.InvalidCount != 2 {
		t.Fatalf("valid=%d invalid=%d", res.ValidCount, res.InvalidCount)
	}
	if len(res.InvalidSamples) != 2 {
		t.Fatalf("samples = %d", len(res.InvalidSamples))
	}
	if res.OutputKey == "" {
		t.Fatal("no output key")
	}

	stored, err := lake.ReadBatch(ctx, bronze, res.OutputKey)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d records", len(stored))
	}
	if src, _ := stored[0].String("_source"); src != "test" {
		t.Errorf("_source = %v", stored[0]["_source"])
	}
}

func TestIngestorRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	bronze, _, _ := testStores(t)
	ing := Ingestor{Bronze: bronze, Log: logger.NewNop(), Now: stageNow}

	if _, err := ing.Run(ctx, "supplier", rawOrders()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("unknown entity: err = %v", err)
	}
	if _, err := ing.Run(ctx, "order", nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("empty batch: err = %v", err)
	}
	res, err := ing.Run(ctx, "order", []records.Record{{"order_id": "O1"}})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("all-invalid batch: err = %v", err)
	}
	if res.InvalidCount != 1 || len(res.InvalidSamples) != 1 {
		t.Errorf("result = %+v", res)
	}
}

// A bronze batch where cleaning drops every record must be skipped, not
// written: an empty file would shadow the previous partition as latest.
func TestSilverizeSkipsEmptyCleanOutput(t *testing.T) {
	ctx := context.Background()
	bronze, silver, _ := testStores(t)
	bad := []records.Record{
		{
			"order_id": "O1", "customer_id": "C1", "product_id": "P1",
			"order_date": "2024-03-14T09:00:00", "quantity": float64(1),
			"total_amount": -10.0, "status": "pending",
		},
		{
			"order_id": "O2", "customer_id": "C2", "product_id": "P2",
			"order_date": "2024-03-14T10:00:00", "quantity": float64(0),
			"total_amount": 25.0, "status": "pending",
		},
	}
	if err := lake.WriteBatch(ctx, bronze, lake.RawKey(entity.Order, stageNow()), bad); err != nil {
		t.Fatalf("seed bronze: %v", err)
	}

	s := Silverizer{Bronze: bronze, Silver: silver, Log: logger.NewNop(), Now: stageNow}
	res, err := s.RunEntity(ctx, entity.Order)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Skipped || res.OutputKey != "" {
		t.Fatalf("result = %+v, want skipped with no output key", res)
	}
	if res.InputCount != 2 || res.OutputCount != 0 {
		t.Fatalf("counts = %+v", res)
	}
	if _, err := lake.LatestKey(ctx, silver, lake.CleanPrefix(entity.Order)); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("silver partition written: err = %v", err)
	}
}

// Partition keys must derive from UTC so they agree with the UTC ingestion
// stamps even when the process clock sits in another zone near midnight.
func TestPartitionKeysUseUTC(t *testing.T) {
	ctx := context.Background()
	bronze, silver, gold := testStores(t)
	log := logger.NewNop()
	// 03:00 local on the 15th in UTC+10 is 17:00 UTC on the 14th.
	zonedNow := func() time.Time {
		return time.Date(2024, 3, 15, 3, 0, 0, 0, time.FixedZone("UTC+10", 10*60*60))
	}

	ing := Ingestor{Bronze: bronze, Source: "test", Environment: "dev", Log: log, Now: zonedNow}
	res, err := ing.Run(ctx, "order", rawOrders())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(res.OutputKey, "year=2024/month=03/day=14") ||
		!strings.Contains(res.OutputKey, "20240314_170000") {
		t.Fatalf("bronze key = %q", res.OutputKey)
	}

	s := Silverizer{Bronze: bronze, Silver: silver, Log: log, Now: zonedNow}
	cres, err := s.RunEntity(ctx, entity.Order)
	if err != nil {
		t.Fatalf("silverize: %v", err)
	}
	if !strings.Contains(cres.OutputKey, "day=14") {
		t.Fatalf("silver key = %q", cres.OutputKey)
	}

	g := GoldBuilder{Silver: silver, Gold: gold, Log: log, Now: zonedNow}
	tres, err := g.Run(ctx)
	if err != nil {
		t.Fatalf("gold: %v", err)
	}
	for _, tr := range tres {
		if !strings.Contains(tr.OutputKey, "20240314") {
			t.Errorf("gold key for %s = %q", tr.Table, tr.OutputKey)
		}
	}
}

func TestSilverizeSkipsMissingBronze(t *testing.T) {
	ctx := context.Background()
	bronze, silver, _ := testStores(t)
	s := Silverizer{Bronze: bronze, Silver: silver, Log: logger.NewNop(), Now: stageNow}
	res, err := s.RunEntity(ctx, entity.Customer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Skipped {
		t.Fatalf("result = %+v, want skipped", res)
	}
}

func TestPipelineBronzeToGold(t *testing.T) {
	ctx := context.Background()
	bronze, silver, gold := testStores(t)
	log := logger.NewNop()

	ing := Ingestor{Bronze: bronze, Source: "test", Environment: "dev", Log: log, Now: stageNow}
	if _, err := ing.Run(ctx, "order", rawOrders()); err != nil {
		t.Fatalf("ingest orders: %v", err)
	}
	if _, err := ing.Run(ctx, "product", []records.Record{
		{"product_id": "P1", "product_name": "Widget", "category": "tools", "base_price": 60.0, "current_price": 50.0},
	}); err != nil {
		t.Fatalf("ingest products: %v", err)
	}

	s := Silverizer{Bronze: bronze, Silver: silver, Log: log, Now: stageNow}
	cleanResults, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("silverize: %v", err)
	}
	byEntity := map[entity.Type]CleanResult{}
	for _, r := range cleanResults {
		byEntity[r.Entity] = r
	}
	// Duplicate O1 collapses and negative O2 drops: 3 valid in, 2 out.
	if r := byEntity[entity.Order]; r.InputCount != 3 || r.OutputCount != 2 {
		t.Fatalf("order clean result = %+v", r)
	}
	if r := byEntity[entity.Customer]; !r.Skipped {
		t.Fatalf("customer result = %+v, want skipped", r)
	}

	g := GoldBuilder{Silver: silver, Gold: gold, Log: log, Now: stageNow}
	tableResults, err := g.Run(ctx)
	if err != nil {
		t.Fatalf("gold: %v", err)
	}
	if len(tableResults) != 3 {
		t.Fatalf("got %d tables", len(tableResults))
	}
	for _, tr := range tableResults {
		if tr.OutputKey == "" || tr.RowCount == 0 {
			t.Errorf("table %s not written: %+v", tr.Table, tr)
		}
	}

	ltv, _, err := lake.ReadLatest(ctx, gold, TableCustomerLTV+"/")
	if err != nil {
		t.Fatalf("read ltv: %v", err)
	}
	segments := map[string]string{}
	for _, row := range ltv {
		id, _ := row.String("customer_id")
		seg, _ := row.String("segment")
		segments[id] = seg
	}
	// C1 keeps the corrected O1 amount (200), C2 only the positive O3 (650).
	if segments["C1"] != "Medium" || segments["C2"] != "High" {
		t.Errorf("segments = %v", segments)
	}

	q := QualityChecker{Gold: gold, Log: log}
	checks, err := q.Run(ctx)
	if err != nil {
		t.Fatalf("quality: %v", err)
	}
	for _, c := range checks {
		if !c.Passed {
			t.Errorf("table %s failed: %v", c.Table, c.Failures)
		}
	}
}

func TestGoldBuilderRequiresOrders(t *testing.T) {
	ctx := context.Background()
	_, silver, gold := testStores(t)
	g := GoldBuilder{Silver: silver, Gold: gold, Log: logger.NewNop(), Now: stageNow}
	if _, err := g.Run(ctx); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQualityFailsWithoutGold(t *testing.T) {
	ctx := context.Background()
	_, _, gold := testStores(t)
	q := QualityChecker{Gold: gold, Log: logger.NewNop()}
	results, err := q.Run(ctx)
	if !errors.Is(err, apperrors.ErrQualityCheckFailed) {
		t.Fatalf("err = %v, want ErrQualityCheckFailed", err)
	}
	for _, r := range results {
		if r.Passed {
			t.Errorf("table %s passed with no partitions", r.Table)
		}
	}
}

// fakePublisher records what the publish stage hands to the warehouse.
type fakePublisher struct {
	published map[string]int
	fail      map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, spec warehouse.TableSpec, rows []records.Record) (int64, error) {
	if err := f.fail[spec.Name]; err != nil {
		return 0, err
	}
	if f.published == nil {
		f.published = map[string]int{}
	}
	f.published[spec.Name] = len(rows)
	return int64(len(rows)), nil
}

func TestGoldPublisher(t *testing.T) {
	ctx := context.Background()
	bronze, silver, gold := testStores(t)
	log := logger.NewNop()

	ing := Ingestor{Bronze: bronze, Source: "test", Environment: "dev", Log: log, Now: stageNow}
	if _, err := ing.Run(ctx, "order", rawOrders()); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	s := Silverizer{Bronze: bronze, Silver: silver, Log: log, Now: stageNow}
	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("silverize: %v", err)
	}
	g := GoldBuilder{Silver: silver, Gold: gold, Log: log, Now: stageNow}
	if _, err := g.Run(ctx); err != nil {
		t.Fatalf("gold: %v", err)
	}

	fake := &fakePublisher{}
	p := GoldPublisher{Gold: gold, Warehouse: fake, Log: log}
	results, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for _, name := range []string{"daily_sales_summary", "customer_lifetime_value", "product_performance"} {
		if fake.published[name] == 0 {
			t.Errorf("table %s not published", name)
		}
	}
}

// One table failing must not stop the rest.
func TestGoldPublisherContinuesPastFailure(t *testing.T) {
	ctx := context.Background()
	bronze, silver, gold := testStores(t)
	log := logger.NewNop()

	ing := Ingestor{Bronze: bronze, Source: "test", Environment: "dev", Log: log, Now: stageNow}
	if _, err := ing.Run(ctx, "order", rawOrders()); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	s := Silverizer{Bronze: bronze, Silver: silver, Log: log, Now: stageNow}
	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("silverize: %v", err)
	}
	g := GoldBuilder{Silver: silver, Gold: gold, Log: log, Now: stageNow}
	if _, err := g.Run(ctx); err != nil {
		t.Fatalf("gold: %v", err)
	}

	fake := &fakePublisher{fail: map[string]error{"daily_sales_summary": errors.New("connection refused")}}
	p := GoldPublisher{Gold: gold, Warehouse: fake, Log: log}
	_, err := p.Run(ctx)
	if err == nil {
		t.Fatal("want joined error")
	}
	if fake.published["customer_lifetime_value"] == 0 || fake.published["product_performance"] == 0 {
		t.Errorf("later tables skipped after failure: %v", fake.published)
	}
}
