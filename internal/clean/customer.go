package clean

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// CustomerCleaner normalizes customer contact data.
//
// Policy: dedup by customer_id keep-last; email lower-cased and trimmed;
// phone reduced to digits; name fields NFC-normalized and trimmed; age
// derived in whole years from date_of_birth (0 when unparseable); flags
// dq_email_valid and dq_has_phone.
type CustomerCleaner struct {
	// Now anchors the age computation; injected so tests are stable.
	Now func() time.Time
}

func (c *CustomerCleaner) Apply(in []records.Record) []records.Record {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	deduped := dedupLast(in, "customer_id")
	out := make([]records.Record, 0, len(deduped))
	for _, rec := range deduped {
		r := rec.Clone()

		email, hasEmail := r.String("email")
		if hasEmail {
			email = strings.ToLower(strings.TrimSpace(email))
			r["email"] = email
		}

		if phone, ok := r.String("phone"); ok {
			r["phone"] = digitsOnly(phone)
		}

		for _, f := range []string{"first_name", "last_name"} {
			if name, ok := r.String(f); ok {
				r[f] = strings.TrimSpace(norm.NFC.String(name))
			}
		}

		r["age"] = ageYears(r, now())
		r["dq_email_valid"] = hasEmail && strings.Contains(email, "@")
		r["dq_has_phone"] = r.Has("phone") && r["phone"] != ""

		out = append(out, r)
	}
	return out
}

// ageYears derives age in whole years from date_of_birth, as elapsed days
// divided by 365. Unparseable or missing birth dates yield 0.
func ageYears(r records.Record, now time.Time) int64 {
	dob, ok := r.ParseTime("date_of_birth")
	if !ok || dob.After(now) {
		return 0
	}
	days := int64(now.Sub(dob).Hours() / 24)
	return days / 365
}

// digitsOnly strips every non-digit character from a phone string.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
