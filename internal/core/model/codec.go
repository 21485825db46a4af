package model

import (
	"encoding/json"
	"errors"
)

// DecodeEvents parses a stored or submitted event list. Unknown kinds and
// unparseable timestamps fail the whole list with ErrMalformedInput.
func DecodeEvents(raw []byte) ([]AttendanceEvent, error) {
	if len(raw) == 0 {
		return []AttendanceEvent{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &MalformedInputError{Index: -1, Field: "events", Value: truncate(string(raw)), Reason: err.Error()}
	}

	events := make([]AttendanceEvent, 0, len(items))
	for i, item := range items {
		var ev AttendanceEvent
		if err := json.Unmarshal(item, &ev); err != nil {
			var mErr *MalformedInputError
			if errors.As(err, &mErr) {
				mErr.Index = i
				return nil, mErr
			}
			return nil, &MalformedInputError{Index: i, Field: "event", Value: truncate(string(item)), Reason: err.Error()}
		}
		if !ev.Kind.Valid() {
			return nil, &MalformedInputError{Index: i, Field: "type", Value: "", Reason: "missing event kind"}
		}
		if ev.Timestamp.IsZero() {
			return nil, &MalformedInputError{Index: i, Field: "timestamp", Value: "", Reason: "missing timestamp"}
		}
		events = append(events, ev)
	}
	return events, nil
}

// EncodeEvents is the inverse of DecodeEvents.
func EncodeEvents(events []AttendanceEvent) ([]byte, error) {
	if events == nil {
		events = []AttendanceEvent{}
	}
	return json.Marshal(events)
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
