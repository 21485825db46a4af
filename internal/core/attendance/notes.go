package attendance

import (
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core/model"
)

// AddedNote is the change note for an event entered by an admin.
func AddedNote(ev model.AttendanceEvent, loc *time.Location) string {
	local := ev.Timestamp.In(location(loc))
	return fmt.Sprintf("Manually added %s (%s %s)",
		strings.ToLower(ev.Kind.Label()), local.Format(noteDateLayout), local.Format(DisplayTimeLayout))
}

// EditNote lists what changed between two versions of an event.
func EditNote(before, after model.AttendanceEvent, loc *time.Location) string {
	b := before.Timestamp.In(location(loc))
	a := after.Timestamp.In(location(loc))

	var changes []string
	if before.Kind != after.Kind {
		changes = append(changes, fmt.Sprintf("Kind changed from %q to %q", before.Kind.Label(), after.Kind.Label()))
	}
	if b.Format(DateKeyLayout) != a.Format(DateKeyLayout) {
		changes = append(changes, fmt.Sprintf("Date changed from %q to %q", b.Format(noteDateLayout), a.Format(noteDateLayout)))
	}
	if b.Format(DisplayTimeLayout) != a.Format(DisplayTimeLayout) {
		changes = append(changes, fmt.Sprintf("Time changed from %q to %q", b.Format(DisplayTimeLayout), a.Format(DisplayTimeLayout)))
	}

	if len(changes) == 0 {
		return "Manually modified"
	}
	return strings.Join(changes, ", ")
}
