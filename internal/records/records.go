// Package records defines the generic record model shared by every pipeline
// stage. A Record is a flat map of named field values as produced by JSON
// decoding or Parquet reads: strings, bools, numbers (int/int64/float64),
// time.Time, or nil.
//
// The typed accessors deliberately coerce across numeric representations so
// that a field written as int64 and read back as float64 (or vice versa)
// behaves identically downstream.
package records

import (
	"strconv"
	"time"
)

// Record is a single flat data record keyed by field name.
type Record map[string]any

// Clone returns a shallow copy of the record. Field values are shared; the
// map itself is new, so adding or overwriting fields on the copy does not
// touch the original.
func (r Record) Clone() Record {
	out := make(Record, len(r)+8)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field exists with a non-nil value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns the field as a string. Non-string values yield ("", false).
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Bool returns the field as a bool. Non-bool values yield (false, false).
func (r Record) Bool(field string) (bool, bool) {
	b, ok := r[field].(bool)
	return b, ok
}

// Float returns the field as a float64, coercing int, int32, int64 and
// numeric strings.
func (r Record) Float(field string) (float64, bool) {
	switch t := r[field].(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Int returns the field as an int64, coercing float64 only when the value is
// integral (JSON numbers decode as float64).
func (r Record) Int(field string) (int64, bool) {
	switch t := r[field].(type) {
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
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// timeLayouts are tried in order by ParseTime. The set covers the timestamp
// shapes the upstream generators emit.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a timestamp field. It accepts time.Time values as-is and
// tries the known layouts for strings. The second return is false when the
// field is missing, nil, or unparseable.
func (r Record) ParseTime(field string) (time.Time, bool) {
	switch t := r[field].(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case string:
		return ParseTimestamp(t)
	}
	return time.Time{}, false
}

// ParseTimestamp parses a bare timestamp string using the known layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
