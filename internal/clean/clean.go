// Package clean implements the per-entity cleaning policies that turn raw
// (bronze) batches into normalized, quality-flagged (silver) batches.
//
// Every cleaner follows the same contract: dedup by entity identifier keeping
// the last occurrence, normalize formats, drop records violating hard
// invariants (money and quantity must be strictly positive), and attach
// boolean dq_* flags for soft violations. Flags never remove a record; they
// preserve auditability while surfacing the signal downstream.
package clean

import (
	"fmt"
	"math"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// Cleaner transforms one raw batch of a single entity type into its cleaned
// form. Output length is always <= input length; the difference is the
// number of records removed.
type Cleaner interface {
	Apply(in []records.Record) []records.Record
}

// ForType selects the cleaning policy for an entity type. The switch is
// exhaustive over the known types; an unknown type is an error, never a
// silent pass-through.
func ForType(t entity.Type, now func() time.Time) (Cleaner, error) {
	if now == nil {
		now = time.Now
	}
	switch t {
	case entity.Customer:
		return &CustomerCleaner{Now: now}, nil
	case entity.Product:
		return &ProductCleaner{}, nil
	case entity.Order:
		return &OrderCleaner{}, nil
	case entity.Event:
		return &EventCleaner{}, nil
	}
	return nil, fmt.Errorf("no cleaner for entity type %q", t)
}

// round2 rounds to two decimal places, the precision used for all derived
// monetary fields.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// positiveField reports whether a numeric field is present and strictly
// positive. Used by the hard filters on products and orders.
func positiveField(r records.Record, field string) bool {
	v, ok := r.Float(field)
	return ok && v > 0
}

// dayOfWeek maps time.Weekday onto Monday=0..Sunday=6, matching the
// convention the downstream tables were built against.
func dayOfWeek(t time.Time) int64 {
	return int64((int(t.Weekday()) + 6) % 7)
}
