package aggregate

import (
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// DailySalesSummary groups cleaned orders by the calendar date of order_date
// (time of day discarded) and aggregates order count, distinct customers,
// revenue, average order value, and units sold.
//
// Orders without a parseable order_date have no calendar bucket and are
// excluded from this table; they still contribute to the other gold tables.
// Rows are emitted in ascending date order.
func DailySalesSummary(orders []records.Record) []records.Record {
	type bucket struct {
		orders    int64
		customers map[string]struct{}
		revenue   float64
		units     int64
	}

	buckets := make(map[string]*bucket)
	for _, o := range orders {
		t, ok := o.ParseTime("order_date")
		if !ok {
			continue
		}
		date := t.Format("2006-01-02")
		b := buckets[date]
		if b == nil {
			b = &bucket{customers: make(map[string]struct{})}
			buckets[date] = b
		}
		b.orders++
		if id, ok := o.String("customer_id"); ok && id != "" {
			b.customers[id] = struct{}{}
		}
		if amount, ok := o.Float("total_amount"); ok {
			b.revenue += amount
		}
		if qty, ok := o.Int("quantity"); ok {
			b.units += qty
		}
	}

	out := make([]records.Record, 0, len(buckets))
	for _, date := range sortedKeys(buckets) {
		b := buckets[date]
		row := records.Record{
			"order_date":          date,
			"total_orders":        b.orders,
			"unique_customers":    int64(len(b.customers)),
			"total_revenue":       round2(b.revenue),
			"avg_order_value":     round2(b.revenue / float64(b.orders)),
			"total_units_sold":    b.units,
			"avg_units_per_order": round2(float64(b.units) / float64(b.orders)),
		}
		out = append(out, row)
	}
	return out
}
