package clean

import (
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// ProductCleaner enforces the pricing invariants on product batches.
//
// Policy: dedup by product_id keep-last; drop records whose base_price or
// current_price is present but not strictly positive; derive discount_pct
// and profit_margin (2 decimals) when the operand fields exist; flag
// dq_has_inventory.
type ProductCleaner struct{}

func (ProductCleaner) Apply(in []records.Record) []records.Record {
	deduped := dedupLast(in, "product_id")
	out := make([]records.Record, 0, len(deduped))
	for _, rec := range deduped {
		if rec.Has("base_price") && !positiveField(rec, "base_price") {
			continue
		}
		if rec.Has("current_price") && !positiveField(rec, "current_price") {
			continue
		}

		r := rec.Clone()

		base, hasBase := r.Float("base_price")
		current, hasCurrent := r.Float("current_price")
		if hasBase && hasCurrent {
			r["discount_pct"] = round2((base - current) / base * 100)
		}
		if cost, hasCost := r.Float("cost"); hasCurrent && hasCost {
			r["profit_margin"] = round2((current - cost) / current * 100)
		}

		qty, _ := r.Float("inventory_quantity")
		r["dq_has_inventory"] = r.Has("inventory_quantity") && qty > 0

		out = append(out, r)
	}
	return out
}
