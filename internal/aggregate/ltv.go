package aggregate

import (
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// Segment revenue thresholds. Buckets are upper-inclusive: a lifetime value
// of exactly 1000 is High, not VIP, and exactly 100 is Low.
const (
	segmentLowMax    = 100
	segmentMediumMax = 500
	segmentHighMax   = 1000
)

// SegmentFor buckets a lifetime revenue value. Values of zero or below have
// no bucket and yield the empty string; cleaned orders cannot produce them.
func SegmentFor(lifetimeValue float64) string {
	switch {
	case lifetimeValue <= 0:
		return ""
	case lifetimeValue <= segmentLowMax:
		return "Low"
	case lifetimeValue <= segmentMediumMax:
		return "Medium"
	case lifetimeValue <= segmentHighMax:
		return "High"
	default:
		return "VIP"
	}
}

// CustomerLTV aggregates cleaned orders per customer: order count, lifetime
// revenue, first/last order dates, tenure, recency against now, and the
// revenue segment. Orders without a customer_id have no owner to attribute
// revenue to and are skipped. Rows are emitted in ascending customer_id
// order.
func CustomerLTV(orders []records.Record, now time.Time) []records.Record {
	type bucket struct {
		orders  int64
		revenue float64
		first   time.Time
		last    time.Time
	}

	buckets := make(map[string]*bucket)
	for _, o := range orders {
		id, ok := o.String("customer_id")
		if !ok || id == "" {
			continue
		}
		b := buckets[id]
		if b == nil {
			b = &bucket{}
			buckets[id] = b
		}
		b.orders++
		if amount, ok := o.Float("total_amount"); ok {
			b.revenue += amount
		}
		if t, ok := o.ParseTime("order_date"); ok {
			if b.first.IsZero() || t.Before(b.first) {
				b.first = t
			}
			if t.After(b.last) {
				b.last = t
			}
		}
	}

	out := make([]records.Record, 0, len(buckets))
	for _, id := range sortedKeys(buckets) {
		b := buckets[id]
		lifetime := round2(b.revenue)
		row := records.Record{
			"customer_id":     id,
			"total_orders":    b.orders,
			"lifetime_value":  lifetime,
			"avg_order_value": round2(b.revenue / float64(b.orders)),
			"segment":         SegmentFor(lifetime),
		}
		if !b.first.IsZero() {
			row["first_order_date"] = b.first.Format("2006-01-02")
			row["last_order_date"] = b.last.Format("2006-01-02")
			row["days_as_customer"] = int64(b.last.Sub(b.first).Hours() / 24)
			row["days_since_last_order"] = int64(now.Sub(b.last).Hours() / 24)
		}
		out = append(out, row)
	}
	return out
}
