// Package enrich stamps accepted records with provenance metadata before they
// land in the raw layer. Enrichment is purely additive: it copies each record
// and only writes metadata fields (underscore-prefixed), so re-running it over
// already-enriched data refreshes the stamps without corrupting anything.
package enrich

import (
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// SchemaVersion tags every enriched record so downstream consumers can tell
// which producer generation wrote it.
const SchemaVersion = "1.0"

// Enricher stamps batches with a fixed source and environment tag.
type Enricher struct {
	Source      string
	Environment string
	// Now supplies the batch ingestion timestamp; defaults to time.Now.
	Now func() time.Time
}

// Apply returns a new batch where every record carries the provenance
// metadata. The ingestion timestamp is taken once, so all records of one
// batch share the same wall-clock value.
//
// For orders with a parseable order_date the calendar components are derived
// as well. A failed parse is silent: the record keeps flowing without the
// derived fields.
func (e Enricher) Apply(recs []records.Record, typ entity.Type) []records.Record {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ingestedAt := now().UTC().Format(time.RFC3339)

	out := make([]records.Record, 0, len(recs))
	for _, rec := range recs {
		enriched := rec.Clone()
		enriched["_ingestion_timestamp"] = ingestedAt
		enriched["_source"] = e.Source
		enriched["_data_type"] = typ.String()
		enriched["_environment"] = e.Environment
		enriched["_version"] = SchemaVersion

		if typ == entity.Order {
			if t, ok := enriched.ParseTime("order_date"); ok {
				enriched["_order_year"] = int64(t.Year())
				enriched["_order_month"] = int64(t.Month())
				enriched["_order_day"] = int64(t.Day())
			}
		}
		out = append(out, enriched)
	}
	return out
}
