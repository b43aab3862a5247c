package clean

import (
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/schema"
)

// OrderCleaner enforces the monetary invariants on order batches.
//
// Policy: dedup by order_id keep-last; drop records whose total_amount or
// quantity is not strictly positive; derive calendar components from
// order_date (an unparseable date keeps the record, marked
// dq_date_parsed=false, with the derived fields absent); backfill unit_price
// from subtotal/quantity when missing; flags dq_has_customer, dq_has_product
// and dq_valid_status. An out-of-set status is flagged, not dropped.
type OrderCleaner struct{}

func (OrderCleaner) Apply(in []records.Record) []records.Record {
	deduped := dedupLast(in, "order_id")
	out := make([]records.Record, 0, len(deduped))
	for _, rec := range deduped {
		if !positiveField(rec, "total_amount") {
			continue
		}
		if !positiveField(rec, "quantity") {
			continue
		}

		r := rec.Clone()

		if t, ok := r.ParseTime("order_date"); ok {
			r["order_year"] = int64(t.Year())
			r["order_month"] = int64(t.Month())
			r["order_day"] = int64(t.Day())
			r["order_dayofweek"] = dayOfWeek(t)
			r["order_hour"] = int64(t.Hour())
			r["dq_date_parsed"] = true
		} else {
			r["dq_date_parsed"] = false
		}

		if !r.Has("unit_price") {
			subtotal, okSub := r.Float("subtotal")
			qty, okQty := r.Float("quantity")
			if okSub && okQty && qty > 0 {
				r["unit_price"] = round2(subtotal / qty)
			}
		}

		status, _ := r.String("status")
		_, validStatus := schema.OrderStatuses[status]

		r["dq_has_customer"] = r.Has("customer_id")
		r["dq_has_product"] = r.Has("product_id")
		r["dq_valid_status"] = validStatus

		out = append(out, r)
	}
	return out
}
