// Package validate checks raw record batches against the per-entity schema
// contracts. Validation never throws: each record is either accepted or
// lands in the rejected list with the ordered reasons it failed, and the
// batch always continues.
package validate

import (
	"fmt"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/schema"
)

// Rejected describes one record that failed validation.
type Rejected struct {
	// Index is the record's position in the input batch.
	Index int `json:"record_index"`
	// Record is the offending source record, unmodified.
	Record records.Record `json:"record"`
	// Reasons lists every failed check in check order.
	Reasons []string `json:"errors"`
}

// Records splits a batch into accepted and rejected records for the given
// entity type tag.
//
// Checks run in order: required fields present and non-nil, declared kinds
// match when a value is present, then business rules. A record failing any
// check is rejected whole; there is no partial acceptance.
//
// An entity type with no known contract bypasses validation: every record is
// accepted and the rejected list is empty. This permissive fallback is
// intentional so that new producers can land data before a contract exists.
func Records(recs []records.Record, typ entity.Type) (accepted []records.Record, rejected []Rejected) {
	contract, ok := schema.For(typ)
	if !ok {
		return recs, nil
	}

	accepted = make([]records.Record, 0, len(recs))
	for idx, rec := range recs {
		reasons := check(contract, rec)
		if len(reasons) == 0 {
			accepted = append(accepted, rec)
		} else {
			rejected = append(rejected, Rejected{Index: idx, Record: rec, Reasons: reasons})
		}
	}
	return accepted, rejected
}

// check returns every reason the record violates the contract, in check order.
func check(c schema.Contract, rec records.Record) []string {
	var reasons []string

	for _, f := range c.Fields {
		if !f.Required {
			continue
		}
		if !rec.Has(f.Name) {
			reasons = append(reasons, fmt.Sprintf("missing required field: %s", f.Name))
		}
	}

	for _, f := range c.Fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		if !kindMatches(f.Kind, v) {
			reasons = append(reasons, fmt.Sprintf("invalid type for %s: expected %s, got %T", f.Name, f.Kind, v))
		}
	}

	for _, rule := range c.Rules {
		if reason := rule(rec); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

// kindMatches reports whether a concrete value satisfies a declared kind.
// JSON decoding yields float64 for every number, so int fields accept
// integral floats and float fields accept any numeric.
func kindMatches(k schema.Kind, v any) bool {
	switch k {
	case schema.String:
		_, ok := v.(string)
		return ok
	case schema.Bool:
		_, ok := v.(bool)
		return ok
	case schema.Float:
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case schema.Int:
		switch t := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return t == float64(int64(t))
		}
		return false
	}
	return true
}
