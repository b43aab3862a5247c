// Package entity defines the closed set of business entity types flowing
// through the pipeline. Stage dispatch switches exhaustively over Type, so
// adding a new entity type is a compile-visible change rather than a silent
// fallthrough on an unknown string tag.
package entity

import "fmt"

// Type identifies one of the raw business record kinds.
type Type string

const (
	Customer Type = "customer"
	Product  Type = "product"
	Order    Type = "order"
	Event    Type = "event"
)

// All lists every known entity type in processing order.
func All() []Type {
	return []Type{Customer, Product, Order, Event}
}

// Parse converts a string tag into a Type. Unknown tags are an error; callers
// that want the permissive validation fallback handle it explicitly.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case Customer, Product, Order, Event:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// String returns the string tag.
func (t Type) String() string { return string(t) }

// Plural returns the storage prefix form, e.g. "order" -> "orders".
func (t Type) Plural() string { return string(t) + "s" }

// IDField returns the identifier field name for the entity type.
func (t Type) IDField() string {
	switch t {
	case Customer:
		return "customer_id"
	case Product:
		return "product_id"
	case Order:
		return "order_id"
	case Event:
		return "event_id"
	}
	return ""
}
