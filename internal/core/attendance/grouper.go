// Package attendance turns a person's attendance events into per-day worked
// time, break time and earnings. Everything here is a pure function of its
// inputs and safe to call concurrently.
package attendance

import (
	"time"

	"attendance.service/internal/core/model"
)

// DateKeyLayout is the calendar-date key format used to bucket events.
const DateKeyLayout = "2006-01-02"

// DateKey returns the local calendar date of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(DateKeyLayout)
}

// ParseDateKey returns local midnight of a date key.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, key, location(loc))
	if err != nil {
		return time.Time{}, &model.MalformedInputError{Index: -1, Field: "date", Value: key, Reason: "expected yyyy-mm-dd"}
	}
	return t, nil
}

// GroupByDay partitions events by the local date of their timestamp. Every
// event lands in exactly one bucket; order inside a bucket follows the input.
// An event with an unknown kind or a zero timestamp fails the whole call.
func GroupByDay(events []model.AttendanceEvent, loc *time.Location) (map[string][]model.AttendanceEvent, error) {
	if err := Validate(events); err != nil {
		return nil, err
	}

	days := make(map[string][]model.AttendanceEvent)
	for _, ev := range events {
		key := DateKey(ev.Timestamp, loc)
		days[key] = append(days[key], ev)
	}
	return days, nil
}

// Validate checks that every event has a known kind and a timestamp.
func Validate(events []model.AttendanceEvent) error {
	for i, ev := range events {
		if !ev.Kind.Valid() {
			return &model.MalformedInputError{Index: i, Field: "type", Value: ev.Kind.String(), Reason: "unrecognized event kind"}
		}
		if ev.Timestamp.IsZero() {
			return &model.MalformedInputError{Index: i, Field: "timestamp", Value: "", Reason: "missing timestamp"}
		}
	}
	return nil
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
