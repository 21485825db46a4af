package attendance

import (
	"sort"
	"time"

	"attendance.service/internal/core/model"
)

type state uint8

const (
	stateIdle state = iota
	stateWorking
	stateOnBreak
)

// Tally is the result of walking one day's events.
type Tally struct {
	WorkedMinutes int
	BreakMinutes  int
}

// accountant walks a day's events in timestamp order.
type accountant struct {
	state      state
	lastStart  time.Time
	breakStart time.Time
	tally      Tally
}

// Account computes worked and break minutes for one day's events. The input
// is not modified. Open intervals at the end of the day are not closed:
// a Working or OnBreak state left over after the last event adds nothing.
//
// A second Arrival while Working restarts the interval and the earlier open
// interval is dropped. A Departure while OnBreak discards the open break.
func Account(events []model.AttendanceEvent) Tally {
	sorted := SortByTime(events)

	a := &accountant{}
	for _, ev := range sorted {
		a.step(ev)
	}
	return a.tally
}

func (a *accountant) step(ev model.AttendanceEvent) {
	ts := ev.Timestamp

	switch ev.Kind {
	case model.KindArrival:
		switch a.state {
		case stateIdle, stateWorking:
			a.lastStart = ts
		case stateOnBreak:
			a.tally.BreakMinutes += minutesBetween(a.breakStart, ts)
			a.lastStart = ts
		}
		a.state = stateWorking

	case model.KindDeparture:
		if a.state == stateWorking {
			a.tally.WorkedMinutes += minutesBetween(a.lastStart, ts)
		}
		a.lastStart = time.Time{}
		a.breakStart = time.Time{}
		a.state = stateIdle

	case model.KindBreak:
		switch a.state {
		case stateWorking:
			a.tally.WorkedMinutes += minutesBetween(a.lastStart, ts)
			a.breakStart = ts
			a.state = stateOnBreak
		case stateOnBreak:
			a.tally.BreakMinutes += minutesBetween(a.breakStart, ts)
			a.lastStart = ts
			a.state = stateWorking
		case stateIdle:
		}

	case model.KindVacation, model.KindSick:
		// annotation only
	}
}

// minutesBetween returns whole minutes from start to end, never negative.
func minutesBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// SortByTime returns a copy of events ordered by timestamp. Events with equal
// timestamps keep their input order.
func SortByTime(events []model.AttendanceEvent) []model.AttendanceEvent {
	sorted := make([]model.AttendanceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
