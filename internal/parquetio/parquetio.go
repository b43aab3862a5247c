// Package parquetio serializes record batches to snappy-compressed Parquet
// and back. The file schema is inferred from the batch itself: every field
// seen across the batch becomes an optional column whose physical type is
// taken from the first non-nil value (string, int64, double, or boolean).
//
// The codec is lossy only in representation, not in content: time.Time
// values are written as RFC3339 strings and integer widths collapse to
// int64, which is exactly how the rest of the pipeline reads them back.
package parquetio

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

type colKind int

const (
	kindString colKind = iota
	kindInt
	kindFloat
	kindBool
)

// Marshal writes a non-empty batch as one Parquet file and returns its bytes.
func Marshal(recs []records.Record) ([]byte, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("parquetio: empty batch")
	}

	kinds := inferKinds(recs)
	schema := buildSchema(kinds)

	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		row := make(map[string]any, len(kinds))
		for field, kind := range kinds {
			v, ok := rec[field]
			if !ok || v == nil {
				continue
			}
			nv, ok := normalize(kind, v)
			if !ok {
				continue
			}
			row[field] = nv
		}
		rows = append(rows, row)
	}

	buf := new(bytes.Buffer)
	w := parquet.NewGenericWriter[map[string]any](buf, schema, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("parquetio: write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("parquetio: close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal reads a Parquet file produced by Marshal back into records.
func Unmarshal(data []byte) ([]records.Record, error) {
	rows, err := parquet.Read[map[string]any](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parquetio: read rows: %w", err)
	}
	out := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(records.Record, len(row))
		for k, v := range row {
			if v == nil {
				continue
			}
			rec[k] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

// inferKinds scans the batch and assigns one column kind per field from the
// first non-nil value. Later records with a conflicting representation are
// coerced at write time where possible and nulled otherwise.
func inferKinds(recs []records.Record) map[string]colKind {
	kinds := make(map[string]colKind)
	for _, rec := range recs {
		for field, v := range rec {
			if v == nil {
				continue
			}
			if _, seen := kinds[field]; seen {
				continue
			}
			switch v.(type) {
			case bool:
				kinds[field] = kindBool
			case int, int32, int64:
				kinds[field] = kindInt
			case float32, float64:
				kinds[field] = kindFloat
			default:
				kinds[field] = kindString
			}
		}
	}
	return kinds
}

func buildSchema(kinds map[string]colKind) *parquet.Schema {
	fields := make([]string, 0, len(kinds))
	for f := range kinds {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	group := parquet.Group{}
	for _, f := range fields {
		var node parquet.Node
		switch kinds[f] {
		case kindBool:
			node = parquet.Leaf(parquet.BooleanType)
		case kindInt:
			node = parquet.Int(64)
		case kindFloat:
			node = parquet.Leaf(parquet.DoubleType)
		default:
			node = parquet.String()
		}
		group[f] = parquet.Optional(node)
	}
	return parquet.NewSchema("records", group)
}

// normalize coerces a value into the physical representation of its column.
func normalize(kind colKind, v any) (any, bool) {
	switch kind {
	case kindBool:
		b, ok := v.(bool)
		return b, ok
	case kindInt:
		switch t := v.(type) {
		case int:
			return int64(t), true
		case int32:
			return int64(t), true
		case int64:
			return t, true
		case float64:
			if t == float64(int64(t)) {
				return int64(t), true
			}
		}
		return nil, false
	case kindFloat:
		switch t := v.(type) {
		case float32:
			return float64(t), true
		case float64:
			return t, true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		}
		return nil, false
	default:
		switch t := v.(type) {
		case string:
			return t, true
		case time.Time:
			return t.UTC().Format(time.RFC3339), true
		default:
			return fmt.Sprint(t), true
		}
	}
}
