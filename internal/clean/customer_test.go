package clean

import (
	"testing"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

func custNow() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestCustomerCleanerNormalizes(t *testing.T) {
	c := &CustomerCleaner{Now: custNow}
	out := c.Apply([]records.Record{{
		"customer_id": "C1",
		"email":       "  Alice@Example.COM ",
		"phone":       "+1 (555) 123-4567",
		"first_name":  " Alice ",
		"last_name":   "Smith",
	}})
	if len(out) != 1 {
		t.Fatalf("got %d records", len(out))
	}
	r := out[0]
	if r["email"] != "alice@example.com" {
		t.Errorf("email = %v", r["email"])
	}
	if r["phone"] != "15551234567" {
		t.Errorf("phone = %v", r["phone"])
	}
	if r["first_name"] != "Alice" {
		t.Errorf("first_name = %v", r["first_name"])
	}
	if r["dq_email_valid"] != true {
		t.Errorf("dq_email_valid = %v", r["dq_email_valid"])
	}
	if r["dq_has_phone"] != true {
		t.Errorf("dq_has_phone = %v", r["dq_has_phone"])
	}
}

func TestCustomerCleanerFlags(t *testing.T) {
	c := &CustomerCleaner{Now: custNow}
	out := c.Apply([]records.Record{{
		"customer_id": "C1",
		"email":       "no-at-sign",
	}})
	r := out[0]
	if r["dq_email_valid"] != false {
		t.Errorf("dq_email_valid = %v", r["dq_email_valid"])
	}
	if r["dq_has_phone"] != false {
		t.Errorf("dq_has_phone = %v", r["dq_has_phone"])
	}
}

func TestCustomerCleanerAge(t *testing.T) {
	c := &CustomerCleaner{Now: custNow}
	cases := []struct {
		dob  any
		want int64
	}{
		{"1990-06-01", 34},
		{"2024-05-01", 0},
		{"garbled", 0},
		{nil, 0},
		{"2030-01-01", 0}, // future birth date
	}
	for _, tc := range cases {
		rec := records.Record{"customer_id": "C1"}
		if tc.dob != nil {
			rec["date_of_birth"] = tc.dob
		}
		out := c.Apply([]records.Record{rec})
		if got, _ := out[0].Int("age"); got != tc.want {
			t.Errorf("age for dob=%v = %d, want %d", tc.dob, got, tc.want)
		}
	}
}

func TestCustomerCleanerDedups(t *testing.T) {
	c := &CustomerCleaner{Now: custNow}
	out := c.Apply([]records.Record{
		{"customer_id": "C1", "email": "old@example.com"},
		{"customer_id": "C1", "email": "new@example.com"},
	})
	if len(out) != 1 {
		t.Fatalf("got %d records", len(out))
	}
	if out[0]["email"] != "new@example.com" {
		t.Errorf("email = %v, want last occurrence", out[0]["email"])
	}
}
