package attendance_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"attendance.service/internal/core/attendance"
	"attendance.service/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// 2025-03-10 is a Monday, 2025-03-15 a Saturday.
var (
	monday   = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	rates    = model.NewRateTable(200, 250)
)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func ev(kind model.Kind, ts time.Time) model.AttendanceEvent {
	return model.AttendanceEvent{Kind: kind, Timestamp: ts}
}

// =============================================================================
// DAY GROUPER
// =============================================================================

func TestGroupByDay_PartitionLaw(t *testing.T) {
	// GIVEN: a random multiset of events spread over several days, with duplicates
	// WHEN: grouping and flattening the buckets
	// THEN: the flattened result is exactly the input multiset

	r := rand.New(rand.NewSource(42))
	kinds := []model.Kind{model.KindArrival, model.KindDeparture, model.KindBreak, model.KindVacation, model.KindSick}

	for round := 0; round < 50; round++ {
		var events []model.AttendanceEvent
		n := r.Intn(40)
		for i := 0; i < n; i++ {
			ts := monday.Add(time.Duration(r.Intn(7*24*60)) * time.Minute)
			events = append(events, ev(kinds[r.Intn(len(kinds))], ts))
			if r.Intn(5) == 0 {
				events = append(events, events[len(events)-1])
			}
		}

		days, err := attendance.GroupByDay(events, time.UTC)
		require.NoError(t, err)

		var flat []model.AttendanceEvent
		for key, bucket := range days {
			for _, e := range bucket {
				assert.Equal(t, key, attendance.DateKey(e.Timestamp, time.UTC), "event misfiled")
			}
			flat = append(flat, bucket...)
		}

		assert.ElementsMatch(t, events, flat)
	}
}

func TestGroupByDay_UsesLocalCalendarDate(t *testing.T) {
	// 23:30 UTC on Monday is already Tuesday in UTC+2
	loc := time.FixedZone("UTC+2", 2*60*60)
	late := ev(model.KindArrival, at(monday, 23, 30))

	days, err := attendance.GroupByDay([]model.AttendanceEvent{late}, loc)
	require.NoError(t, err)

	assert.Contains(t, days, "2025-03-11")
	assert.NotContains(t, days, "2025-03-10")
}

func TestGroupByDay_AllDaySpecialKeysByTimestampDate(t *testing.T) {
	vacation := model.AttendanceEvent{Kind: model.KindVacation, Timestamp: saturday, AllDay: true, IsSpecial: true}

	days, err := attendance.GroupByDay([]model.AttendanceEvent{vacation}, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []model.AttendanceEvent{vacation}, days["2025-03-15"])
}

func TestGroupByDay_UnknownKind_FailsFast(t *testing.T) {
	events := []model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		{Kind: model.Kind(42), Timestamp: at(monday, 9, 0)},
	}

	_, err := attendance.GroupByDay(events, time.UTC)

	require.ErrorIs(t, err, model.ErrMalformedInput)
	var mErr *model.MalformedInputError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, 1, mErr.Index)
}

func TestGroupByDay_ZeroTimestamp_FailsFast(t *testing.T) {
	_, err := attendance.GroupByDay([]model.AttendanceEvent{{Kind: model.KindBreak}}, time.UTC)
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

// =============================================================================
// TIME ACCOUNTANT
// =============================================================================

func TestAccount_ArrivalBreakBreakDeparture(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindBreak, at(monday, 12, 0)),
		ev(model.KindBreak, at(monday, 12, 30)),
		ev(model.KindDeparture, at(monday, 16, 0)),
	})

	assert.Equal(t, 450, tally.WorkedMinutes)
	assert.Equal(t, 30, tally.BreakMinutes)
}

func TestAccount_UnsortedInput_IsSortedFirst(t *testing.T) {
	events := []model.AttendanceEvent{
		ev(model.KindDeparture, at(monday, 16, 0)),
		ev(model.KindBreak, at(monday, 12, 30)),
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindBreak, at(monday, 12, 0)),
	}
	original := append([]model.AttendanceEvent(nil), events...)

	tally := attendance.Account(events)

	assert.Equal(t, 450, tally.WorkedMinutes)
	assert.Equal(t, 30, tally.BreakMinutes)
	assert.Equal(t, original, events, "input must not be reordered")
}

func TestAccount_DoubleArrival_OnlyLatestIntervalCounts(t *testing.T) {
	// The 08:00 arrival is dropped when 09:00 arrives before any departure.
	// This is the current policy; changing it must change this test.
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindArrival, at(monday, 9, 0)),
		ev(model.KindDeparture, at(monday, 17, 0)),
	})

	assert.Equal(t, 480, tally.WorkedMinutes)
	assert.Equal(t, 0, tally.BreakMinutes)
}

func TestAccount_OpenBreakAtDeparture_NotCounted(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 9, 0)),
		ev(model.KindBreak, at(monday, 12, 0)),
		ev(model.KindDeparture, at(monday, 17, 0)),
	})

	assert.Equal(t, 180, tally.WorkedMinutes)
	assert.Equal(t, 0, tally.BreakMinutes)
}

func TestAccount_MissingDeparture_OpenIntervalNotClosedAtDayEnd(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindBreak, at(monday, 10, 0)),
		ev(model.KindBreak, at(monday, 10, 15)),
	})

	assert.Equal(t, 120, tally.WorkedMinutes)
	assert.Equal(t, 15, tally.BreakMinutes)
}

func TestAccount_ArrivalWhileOnBreak_EndsBreakAndResumes(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindBreak, at(monday, 12, 0)),
		ev(model.KindArrival, at(monday, 12, 45)),
		ev(model.KindDeparture, at(monday, 16, 45)),
	})

	assert.Equal(t, 240+240, tally.WorkedMinutes)
	assert.Equal(t, 45, tally.BreakMinutes)
}

func TestAccount_IdleDepartureAndBreak_AreNoOps(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindDeparture, at(monday, 7, 0)),
		ev(model.KindBreak, at(monday, 7, 30)),
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindDeparture, at(monday, 9, 0)),
		ev(model.KindDeparture, at(monday, 10, 0)),
	})

	assert.Equal(t, 60, tally.WorkedMinutes)
	assert.Equal(t, 0, tally.BreakMinutes)
}

func TestAccount_SpecialEvents_DoNotAffectState(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindVacation, at(monday, 9, 0)),
		ev(model.KindSick, at(monday, 10, 0)),
		ev(model.KindDeparture, at(monday, 12, 0)),
	})

	assert.Equal(t, 240, tally.WorkedMinutes)
}

func TestAccount_IdenticalTimestamps_ContributeZero(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindDeparture, at(monday, 8, 0)),
	})

	assert.Equal(t, 0, tally.WorkedMinutes)
	assert.Equal(t, 0, tally.BreakMinutes)
}

func TestAccount_PartialMinutes_Truncated(t *testing.T) {
	tally := attendance.Account([]model.AttendanceEvent{
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindDeparture, at(monday, 8, 0).Add(59*time.Second+10*time.Minute)),
	})

	assert.Equal(t, 10, tally.WorkedMinutes)
}

func TestAccount_Empty(t *testing.T) {
	assert.Equal(t, attendance.Tally{}, attendance.Account(nil))
}

// =============================================================================
// EARNINGS
// =============================================================================

func TestEarnings_WeekendRate(t *testing.T) {
	earnings := attendance.Earnings(240, attendance.IsWeekend(saturday), rates)

	assert.True(t, earnings.Equal(decimal.NewFromInt(1000)), "got %s", earnings)
	assert.Equal(t, "1000.00", attendance.FormatMoney(earnings))
}

func TestEarnings_WeekdayRate(t *testing.T) {
	earnings := attendance.Earnings(90, attendance.IsWeekend(monday), rates)
	assert.Equal(t, "300.00", attendance.FormatMoney(earnings))
}

func TestEarnings_ZeroMinutes(t *testing.T) {
	assert.True(t, attendance.Earnings(0, false, rates).IsZero())
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, attendance.IsWeekend(saturday))
	assert.True(t, attendance.IsWeekend(saturday.AddDate(0, 0, 1)))
	assert.False(t, attendance.IsWeekend(monday))
	assert.False(t, attendance.IsWeekend(saturday.AddDate(0, 0, -1)))
}

// =============================================================================
// REPORT ASSEMBLER
// =============================================================================

func fullDay(day time.Time, fromHour, toHour int) []model.AttendanceEvent {
	return []model.AttendanceEvent{
		ev(model.KindArrival, at(day, fromHour, 0)),
		ev(model.KindDeparture, at(day, toHour, 0)),
	}
}

func TestBuildReport_AggregateIsNotBlended(t *testing.T) {
	// GIVEN: 8h on Monday and 4h on Saturday
	events := append(fullDay(monday, 8, 16), fullDay(saturday, 8, 12)...)

	// WHEN: assembling the report
	report, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)

	// THEN: total = 8*200 + 4*250, not 12*200
	assert.Equal(t, 720, report.TotalWorkedMinutes)
	assert.Equal(t, "2600.00", report.TotalEarningsText)
	assert.True(t, report.TotalEarnings.Equal(attendance.TotalEarnings(report.Summaries())))

	blended := decimal.NewFromInt(int64(report.TotalWorkedMinutes)).Div(decimal.NewFromInt(60)).Mul(rates.WeekdayRate)
	assert.False(t, report.TotalEarnings.Equal(blended))
}

func TestBuildReport_DaysDescending(t *testing.T) {
	events := append(fullDay(monday, 8, 9), fullDay(saturday, 8, 9)...)
	events = append(events, fullDay(monday.AddDate(0, 0, 1), 8, 9)...)

	report, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)

	var keys []string
	for _, d := range report.Days {
		keys = append(keys, d.DateKey)
	}
	assert.Equal(t, []string{"2025-03-15", "2025-03-11", "2025-03-10"}, keys)
	assert.True(t, sort.IsSorted(sort.Reverse(sort.StringSlice(keys))))
}

func TestBuildReport_RowFormatting(t *testing.T) {
	events := []model.AttendanceEvent{
		ev(model.KindDeparture, at(monday, 16, 0)),
		ev(model.KindBreak, at(monday, 12, 30)),
		ev(model.KindArrival, at(monday, 8, 0)),
		ev(model.KindBreak, at(monday, 12, 0)),
	}

	report, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)
	require.Len(t, report.Days, 1)

	row := report.Days[0]
	assert.Equal(t, "10.03.2025", row.Date)
	assert.Equal(t, []string{"08:00"}, row.Arrivals)
	assert.Equal(t, []string{"16:00"}, row.Departures)
	assert.Equal(t, []string{"12:00", "12:30"}, row.Breaks)
	assert.Equal(t, "7h 30m", row.Worked)
	assert.Equal(t, "0h 30m", row.BreakTime)
	assert.Equal(t, "1500.00", row.Earnings)
	assert.False(t, row.Summary.IsWeekend)
	assert.Empty(t, row.Annotation)
	assert.Equal(t, "7h 30m", report.TotalWorked)
}

func TestBuildReport_CustomAnnotation(t *testing.T) {
	events := []model.AttendanceEvent{
		{Kind: model.KindArrival, Timestamp: at(monday, 8, 0), IsCustom: true, ChangeNote: `Time changed from "08:10" to "08:00"`},
		{Kind: model.KindDeparture, Timestamp: at(monday, 16, 0), IsCustom: true},
	}

	report, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)

	row := report.Days[0]
	assert.True(t, row.Summary.HasCustomEntry)
	assert.Equal(t, `Time changed from "08:10" to "08:00"; `+attendance.ManualEditMarker, row.Annotation)
}

func TestBuildReport_SpecialLabel(t *testing.T) {
	events := []model.AttendanceEvent{
		{Kind: model.KindVacation, Timestamp: saturday, AllDay: true, IsSpecial: true},
		{Kind: model.KindSick, Timestamp: saturday.Add(time.Hour), AllDay: true, IsSpecial: true},
	}

	report, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)

	summary := report.Days[0].Summary
	assert.True(t, summary.HasSpecialEntry)
	assert.Equal(t, "Vacation, Sick", summary.SpecialLabel)
	assert.Equal(t, 0, summary.WorkedMinutes)
	assert.True(t, summary.Earnings.IsZero())
}

func TestBuildReport_MonthFilter_OnlyChangesIncludedDays(t *testing.T) {
	april := time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC) // Saturday
	events := append(fullDay(monday, 8, 16), fullDay(april, 8, 12)...)

	all, err := attendance.BuildReport(events, rates, time.UTC)
	require.NoError(t, err)
	march, err := attendance.BuildReport(attendance.FilterMonth(events, 2025, time.March, time.UTC), rates, time.UTC)
	require.NoError(t, err)

	require.Len(t, march.Days, 1)
	fromAll, ok := all.Day("2025-03-10")
	require.True(t, ok)
	assert.Equal(t, fromAll, march.Days[0])
	assert.Equal(t, "1600.00", march.TotalEarningsText)
	assert.Equal(t, "2600.00", all.TotalEarningsText)
}

func TestBuildReport_Empty(t *testing.T) {
	report, err := attendance.BuildReport(nil, rates, time.UTC)
	require.NoError(t, err)

	assert.Empty(t, report.Days)
	assert.Equal(t, "0.00", report.TotalEarningsText)
	assert.Equal(t, "0h 0m", report.TotalWorked)
}

func TestFilterRange_HalfOpen(t *testing.T) {
	events := []model.AttendanceEvent{
		ev(model.KindArrival, monday),
		ev(model.KindArrival, saturday),
	}

	got := attendance.FilterRange(events, monday, saturday)

	assert.Equal(t, events[:1], got)
}

// =============================================================================
// PRESENCE / NOTES / FORMAT
// =============================================================================

func TestCurrentPresence(t *testing.T) {
	tests := []struct {
		name   string
		events []model.AttendanceEvent
		want   attendance.Presence
	}{
		{"no events", nil, attendance.Absent},
		{"arrived", fullDay(monday, 8, 16)[:1], attendance.Present},
		{"departed", fullDay(monday, 8, 16), attendance.Absent},
		{"break after arrival", []model.AttendanceEvent{
			ev(model.KindArrival, at(monday, 8, 0)),
			ev(model.KindBreak, at(monday, 12, 0)),
		}, attendance.Present},
		{"second break", []model.AttendanceEvent{
			ev(model.KindArrival, at(monday, 8, 0)),
			ev(model.KindBreak, at(monday, 12, 0)),
			ev(model.KindBreak, at(monday, 12, 30)),
		}, attendance.Absent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attendance.CurrentPresence(tt.events))
		})
	}
}

func TestEditNote(t *testing.T) {
	before := ev(model.KindArrival, at(monday, 8, 10))

	assert.Equal(t, "Manually modified", attendance.EditNote(before, before, time.UTC))
	assert.Equal(t,
		`Kind changed from "Arrival" to "Departure", Time changed from "08:10" to "16:00"`,
		attendance.EditNote(before, ev(model.KindDeparture, at(monday, 16, 0)), time.UTC))
	assert.Equal(t,
		`Date changed from "10.3.2025" to "15.3.2025"`,
		attendance.EditNote(before, ev(model.KindArrival, at(saturday, 8, 10)), time.UTC))
}

func TestAddedNote(t *testing.T) {
	assert.Equal(t, "Manually added break (10.3.2025 12:00)",
		attendance.AddedNote(ev(model.KindBreak, at(monday, 12, 0)), time.UTC))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 0m", attendance.FormatDuration(0))
	assert.Equal(t, "7h 30m", attendance.FormatDuration(450))
	assert.Equal(t, "25h 1m", attendance.FormatDuration(1501))
}
