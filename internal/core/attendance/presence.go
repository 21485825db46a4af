package attendance

import "attendance.service/internal/core/model"

type Presence string

const (
	Present Presence = "present"
	Absent  Presence = "absent"
)

// CurrentPresence derives whether a person is on site from their latest
// events: the latest event is an Arrival, or the latest is a Break directly
// preceded by an Arrival.
func CurrentPresence(events []model.AttendanceEvent) Presence {
	sorted := SortByTime(events)
	n := len(sorted)
	if n == 0 {
		return Absent
	}

	last := sorted[n-1]
	if last.Kind == model.KindArrival {
		return Present
	}
	if last.Kind == model.KindBreak && n > 1 && sorted[n-2].Kind == model.KindArrival {
		return Present
	}
	return Absent
}
