package aggregate

import (
	"sort"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// ProductPerformance aggregates cleaned orders per product and left-joins
// product metadata by product_id. Products with no matching metadata keep
// only the order-derived columns; profit columns appear only when both cost
// and current_price exist on the joined row.
//
// revenue_rank is descending by total_revenue with ties sharing the average
// of their ordinal ranks (so two products tied for 2nd and 3rd both rank
// 2.5). Rows are emitted in rank order, product_id ascending within ties.
func ProductPerformance(orders, products []records.Record) []records.Record {
	type bucket struct {
		orders  int64
		units   int64
		revenue float64
	}

	buckets := make(map[string]*bucket)
	for _, o := range orders {
		id, ok := o.String("product_id")
		if !ok || id == "" {
			continue
		}
		b := buckets[id]
		if b == nil {
			b = &bucket{}
			buckets[id] = b
		}
		b.orders++
		if qty, ok := o.Int("quantity"); ok {
			b.units += qty
		}
		if amount, ok := o.Float("total_amount"); ok {
			b.revenue += amount
		}
	}

	meta := make(map[string]records.Record, len(products))
	for _, p := range products {
		if id, ok := p.String("product_id"); ok && id != "" {
			meta[id] = p
		}
	}

	rows := make([]records.Record, 0, len(buckets))
	for _, id := range sortedKeys(buckets) {
		b := buckets[id]
		revenue := round2(b.revenue)
		row := records.Record{
			"product_id":            id,
			"times_ordered":         b.orders,
			"units_sold":            b.units,
			"total_revenue":         revenue,
			"avg_revenue_per_order": round2(b.revenue / float64(b.orders)),
		}
		if p, ok := meta[id]; ok {
			for _, f := range []string{"product_name", "category", "current_price", "cost"} {
				if p.Has(f) {
					row[f] = p[f]
				}
			}
			price, hasPrice := p.Float("current_price")
			cost, hasCost := p.Float("cost")
			if hasPrice && hasCost {
				row["total_profit"] = round2((price - cost) * float64(b.units))
				row["profit_margin"] = round2((price - cost) / price * 100)
			}
		}
		rows = append(rows, row)
	}

	rankByRevenue(rows)
	return rows
}

// rankByRevenue sorts rows by total_revenue descending (product_id ascending
// within ties) and assigns revenue_rank using average-of-ordinals for tied
// revenues.
func rankByRevenue(rows []records.Record) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, _ := rows[i].Float("total_revenue")
		rj, _ := rows[j].Float("total_revenue")
		if ri != rj {
			return ri > rj
		}
		pi, _ := rows[i].String("product_id")
		pj, _ := rows[j].String("product_id")
		return pi < pj
	})

	for i := 0; i < len(rows); {
		ri, _ := rows[i].Float("total_revenue")
		j := i + 1
		for j < len(rows) {
			rj, _ := rows[j].Float("total_revenue")
			if rj != ri {
				break
			}
			j++
		}
		// Ordinals are 1-based; a run [i, j) shares the average ordinal.
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			rows[k]["revenue_rank"] = avg
		}
		i = j
	}
}
