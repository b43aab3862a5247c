// Package stage wires the transform components into the three schedulable
// pipeline invocations: ingest (validate→enrich→write bronze), silverize
// (read bronze→clean→write silver), and gold build (read silver→aggregate→
// write gold), plus the gold-layer quality gate.
//
// Every invocation is stateless and processes one batch end to end. Store
// handles are injected at construction; invocations may run concurrently
// across entity types or time windows because each one writes to a uniquely
// timestamped key and never mutates an existing partition.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/enrich"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/lake"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/validate"
)

// maxInvalidSamples bounds how many rejected records an ingest result carries
// back to the caller.
const maxInvalidSamples = 10

// Ingestor lands validated, enriched raw batches in the bronze layer.
type Ingestor struct {
	Bronze      blobstore.Store
	Source      string
	Environment string
	Log         *logger.Logger
	// Now supplies the invocation timestamp; defaults to time.Now.
	Now func() time.Time
}

// IngestResult summarizes one ingest invocation.
type IngestResult struct {
	EntityType     string              `json:"entity_type"`
	ValidCount     int                 `json:"valid_records"`
	InvalidCount   int                 `json:"invalid_records"`
	InvalidSamples []validate.Rejected `json:"invalid_samples,omitempty"`
	OutputKey      string              `json:"output_location,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

// Run validates and enriches one raw batch and writes it to the bronze
// layer. Record-level validation failures are data, not errors: they are
// counted and sampled in the result while the batch continues. The
// invocation itself fails for an unknown entity tag, an empty batch, a batch
// with no valid records, or a store/serialization failure.
func (ing Ingestor) Run(ctx context.Context, entityTag string, recs []records.Record) (IngestResult, error) {
	now := time.Now
	if ing.Now != nil {
		now = ing.Now
	}
	start := now()
	res := IngestResult{EntityType: entityTag, Timestamp: start.UTC()}

	var err error
	defer func() { metrics.RecordStage("ingest", "ingest_"+entityTag, err, time.Since(start)) }()

	typ, err := entity.Parse(entityTag)
	if err != nil {
		err = apperrors.InvalidInputf("%v", err)
		return res, err
	}
	if len(recs) == 0 {
		err = apperrors.InvalidInputf("no records provided")
		return res, err
	}

	accepted, rejected := validate.Records(recs, typ)
	res.ValidCount = len(accepted)
	res.InvalidCount = len(rejected)
	if len(rejected) > maxInvalidSamples {
		res.InvalidSamples = rejected[:maxInvalidSamples]
	} else {
		res.InvalidSamples = rejected
	}
	metrics.RecordRecords("ingest", "accepted", int64(len(accepted)))
	metrics.RecordRecords("ingest", "rejected", int64(len(rejected)))

	if len(accepted) == 0 {
		err = apperrors.InvalidInputf("no valid records in batch of %d", len(recs))
		return res, err
	}

	enricher := enrich.Enricher{Source: ing.Source, Environment: ing.Environment, Now: now}
	enriched := enricher.Apply(accepted, typ)

	key := lake.RawKey(typ, start.UTC())
	if err = lake.WriteBatch(ctx, ing.Bronze, key, enriched); err != nil {
		err = fmt.Errorf("write bronze batch: %w", err)
		return res, err
	}
	metrics.RecordPartitions("ingest", 1)
	res.OutputKey = key

	ing.Log.Info("ingested batch",
		"entity", entityTag,
		"valid", res.ValidCount,
		"invalid", res.InvalidCount,
		"key", key,
	)
	return res, nil
}
