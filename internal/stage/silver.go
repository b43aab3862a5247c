package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/clean"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/lake"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
)

// Silverizer cleans the latest raw partition of each entity type and lands
// the result in the silver layer.
type Silverizer struct {
	Bronze blobstore.Store
	Silver blobstore.Store
	Log    *logger.Logger
	// Now supplies the invocation timestamp; defaults to time.Now.
	Now func() time.Time
}

// CleanResult summarizes the silverize invocation for one entity type.
type CleanResult struct {
	Entity      entity.Type `json:"entity"`
	Skipped     bool        `json:"skipped"`
	InputCount  int         `json:"input_records"`
	OutputCount int         `json:"output_records"`
	SourceKey   string      `json:"source_key,omitempty"`
	OutputKey   string      `json:"output_key,omitempty"`
}

// Run silverizes every entity type concurrently. Types are independent, so
// one failing never stops the others; the returned error joins all per-type
// failures. Results come back in entity.All order regardless of completion
// order.
func (s Silverizer) Run(ctx context.Context) ([]CleanResult, error) {
	types := entity.All()
	results := make([]CleanResult, len(types))
	errs := make([]error, len(types))

	var g errgroup.Group
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			results[i], errs[i] = s.RunEntity(ctx, t)
			return nil
		})
	}
	g.Wait()

	for i, err := range errs {
		if err != nil {
			errs[i] = fmt.Errorf("silverize %s: %w", types[i], err)
		}
	}
	return results, errors.Join(errs...)
}

// RunEntity silverizes a single entity type: read the latest raw partition,
// clean it, write the cleaned batch. A missing raw partition is not an
// error, the type is reported as skipped; a batch where cleaning removed
// every record is skipped too, so an empty file never becomes the latest
// silver partition.
func (s Silverizer) RunEntity(ctx context.Context, t entity.Type) (CleanResult, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	start := now()
	res := CleanResult{Entity: t}

	var err error
	defer func() { metrics.RecordStage("silverize", "clean_"+t.Plural(), err, time.Since(start)) }()

	cleaner, err := clean.ForType(t, now)
	if err != nil {
		return res, err
	}

	raw, sourceKey, err := lake.ReadLatest(ctx, s.Bronze, lake.RawPrefix(t))
	if errors.Is(err, apperrors.ErrNotFound) {
		s.Log.Info("no raw partition, skipping", "entity", t.String())
		res.Skipped = true
		err = nil
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.SourceKey = sourceKey
	res.InputCount = len(raw)

	cleaned := cleaner.Apply(raw)
	res.OutputCount = len(cleaned)
	metrics.RecordRecords("silverize", t.Plural()+"_in", int64(len(raw)))
	metrics.RecordRecords("silverize", t.Plural()+"_out", int64(len(cleaned)))

	if len(cleaned) == 0 {
		s.Log.Warn("cleaning removed every record, skipping write",
			"entity", t.String(), "source", sourceKey, "input", len(raw))
		res.Skipped = true
		return res, nil
	}

	key := lake.CleanKey(t, start.UTC())
	if err = lake.WriteBatch(ctx, s.Silver, key, cleaned); err != nil {
		return res, err
	}
	metrics.RecordPartitions("silverize", 1)
	res.OutputKey = key

	s.Log.Info("silverized batch",
		"entity", t.String(),
		"input", res.InputCount,
		"output", res.OutputCount,
		"removed", res.InputCount-res.OutputCount,
		"key", key,
	)
	return res, nil
}
