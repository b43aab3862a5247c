// Package aggregate computes the gold-layer analytics tables from cleaned
// silver batches: daily sales summary, customer lifetime value, and product
// performance. Each table is an independent pure function over record
// batches; tables carry no back-references to the orders they summarize.
package aggregate

import (
	"math"
	"sort"
)

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// sortedKeys returns map keys in ascending order for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
