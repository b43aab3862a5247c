package clean

import (
	"fmt"
	"sort"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// dedupLast collapses duplicate records by the given identifier field,
// keeping the last occurrence in batch order. Last-wins models "most recent
// write wins" for idempotent re-ingestion: replaying a batch that contains a
// corrected record converges on the correction.
//
// Records missing the key field cannot be deduplicated; they pass through
// after the keyed winners, in their original relative order.
func dedupLast(in []records.Record, keyField string) []records.Record {
	if len(in) == 0 {
		return in
	}

	type slot struct {
		rec   records.Record
		index int
	}

	// Key on the value itself, stringified. Hashing here would let two
	// distinct identifiers silently merge on a collision.
	keyOf := func(r records.Record) (string, bool) {
		v, ok := r[keyField]
		if !ok || v == nil {
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		return s, true
	}

	winners := make(map[string]slot, len(in))
	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		winners[key] = slot{rec: r, index: i}
	}

	// Emit winners ordered by the position of the winning occurrence so the
	// output order is deterministic and input-derived.
	out := make([]records.Record, 0, len(winners))
	indexes := make([]int, 0, len(winners))
	byIndex := make(map[int]records.Record, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		byIndex[s.index] = s.rec
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		out = append(out, byIndex[idx])
	}

	for _, r := range in {
		if _, ok := keyOf(r); !ok {
			out = append(out, r)
		}
	}
	return out
}
