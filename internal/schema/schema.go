// Package schema declares the validation contracts for each entity type:
// which fields are required, what kind each declared field has, and the
// business rules that go beyond shape checks.
//
// Contracts mirror the upstream producers exactly. A field that is not
// declared in a contract passes through validation untouched; extra fields
// are never an error.
package schema

import (
	"fmt"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/entity"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// Kind is the declared type of a field.
type Kind string

const (
	String Kind = "string"
	Int    Kind = "int"
	Float  Kind = "float"
	Bool   Kind = "bool"
)

// Field declares one field of a contract.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Rule is a business-rule predicate over a whole record. It returns a
// human-readable reason when the record violates the rule, or "" when it
// passes (or when the rule does not apply, e.g. the field is absent).
type Rule func(records.Record) string

// Contract is the full validation contract for one entity type.
type Contract struct {
	Entity entity.Type
	Fields []Field
	Rules  []Rule
}

// positiveRule builds a rule requiring a numeric field, when present, to be
// strictly positive.
func positiveRule(field string) Rule {
	return func(r records.Record) string {
		if !r.Has(field) {
			return ""
		}
		v, ok := r.Float(field)
		if !ok || v > 0 {
			// Non-numeric values are reported by the type check, not here.
			return ""
		}
		return fmt.Sprintf("%s must be positive", field)
	}
}

// contracts holds the known entity contracts. Unknown entity types have no
// contract and bypass validation entirely (the permissive fallback is
// deliberate, see validate.Validate).
var contracts = map[entity.Type]Contract{
	entity.Customer: {
		Entity: entity.Customer,
		Fields: []Field{
			{Name: "customer_id", Kind: String, Required: true},
			{Name: "email", Kind: String, Required: true},
			{Name: "first_name", Kind: String, Required: true},
			{Name: "last_name", Kind: String, Required: true},
			{Name: "phone", Kind: String},
			{Name: "is_active", Kind: Bool},
		},
	},
	entity.Product: {
		Entity: entity.Product,
		Fields: []Field{
			{Name: "product_id", Kind: String, Required: true},
			{Name: "product_name", Kind: String, Required: true},
			{Name: "category", Kind: String, Required: true},
			{Name: "base_price", Kind: Float, Required: true},
			{Name: "current_price", Kind: Float},
			{Name: "inventory_quantity", Kind: Int},
		},
		Rules: []Rule{
			positiveRule("base_price"),
		},
	},
	entity.Order: {
		Entity: entity.Order,
		Fields: []Field{
			{Name: "order_id", Kind: String, Required: true},
			{Name: "customer_id", Kind: String, Required: true},
			{Name: "product_id", Kind: String, Required: true},
			{Name: "order_date", Kind: String},
			{Name: "quantity", Kind: Int},
			{Name: "total_amount", Kind: Float, Required: true},
			{Name: "status", Kind: String},
		},
		Rules: []Rule{
			positiveRule("total_amount"),
			positiveRule("quantity"),
		},
	},
	entity.Event: {
		Entity: entity.Event,
		Fields: []Field{
			{Name: "event_id", Kind: String, Required: true},
			{Name: "session_id", Kind: String},
			{Name: "event_type", Kind: String, Required: true},
			{Name: "event_timestamp", Kind: String, Required: true},
		},
	},
}

// For returns the contract for an entity type. The second return is false
// when no contract is known.
func For(t entity.Type) (Contract, bool) {
	c, ok := contracts[t]
	return c, ok
}

// OrderStatuses is the closed set of valid order states.
var OrderStatuses = map[string]struct{}{
	"pending":   {},
	"confirmed": {},
	"shipped":   {},
	"delivered": {},
	"cancelled": {},
}

// EventTypes is the closed set of valid behavioral event types.
var EventTypes = map[string]struct{}{
	"page_view":        {},
	"product_view":     {},
	"add_to_cart":      {},
	"remove_from_cart": {},
	"checkout_start":   {},
	"purchase":         {},
}
