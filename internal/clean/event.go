package clean

import (
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/schema"
)

// EventCleaner normalizes behavioral event batches.
//
// Policy: dedup by event_id keep-last; derive event_date/event_hour/
// event_dayofweek from event_timestamp (an unparseable timestamp keeps the
// record, marked dq_date_parsed=false); flags is_anonymous, dq_has_session
// and dq_valid_event_type. Events are never dropped for soft violations.
type EventCleaner struct{}

func (EventCleaner) Apply(in []records.Record) []records.Record {
	deduped := dedupLast(in, "event_id")
	out := make([]records.Record, 0, len(deduped))
	for _, rec := range deduped {
		r := rec.Clone()

		if t, ok := r.ParseTime("event_timestamp"); ok {
			r["event_date"] = t.Format("2006-01-02")
			r["event_hour"] = int64(t.Hour())
			r["event_dayofweek"] = dayOfWeek(t)
			r["dq_date_parsed"] = true
		} else {
			r["dq_date_parsed"] = false
		}

		eventType, _ := r.String("event_type")
		_, validType := schema.EventTypes[eventType]

		r["is_anonymous"] = !r.Has("customer_id")
		r["dq_has_session"] = r.Has("session_id")
		r["dq_valid_event_type"] = validType

		out = append(out, r)
	}
	return out
}
