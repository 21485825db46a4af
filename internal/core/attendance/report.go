package attendance

import (
	"sort"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"github.com/shopspring/decimal"
)

// ManualEditMarker annotates a custom event that carries no change note.
const ManualEditMarker = "Manually modified (no details)"

// DayRow is one calendar day of a report with display-ready strings.
type DayRow struct {
	DateKey    string           `json:"dateKey"`
	Date       string           `json:"date"`
	Arrivals   []string         `json:"arrivals"`
	Departures []string         `json:"departures"`
	Breaks     []string         `json:"breaks"`
	Summary    model.DaySummary `json:"summary"`
	Worked     string           `json:"worked"`
	BreakTime  string           `json:"breakTime"`
	Earnings   string           `json:"earnings"`
	Annotation string           `json:"annotation,omitempty"`
}

// Report is the output of BuildReport: days newest first plus grand totals.
type Report struct {
	Days               []DayRow        `json:"days"`
	TotalWorkedMinutes int             `json:"totalWorkedMinutes"`
	TotalBreakMinutes  int             `json:"totalBreakMinutes"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
	TotalWorked        string          `json:"totalWorked"`
	TotalBreak         string          `json:"totalBreak"`
	TotalEarningsText  string          `json:"totalEarningsText"`
}

// Summaries returns the DaySummary of every row, in row order.
func (r *Report) Summaries() []model.DaySummary {
	out := make([]model.DaySummary, 0, len(r.Days))
	for _, d := range r.Days {
		out = append(out, d.Summary)
	}
	return out
}

// Day returns the row for a date key.
func (r *Report) Day(dateKey string) (DayRow, bool) {
	for _, d := range r.Days {
		if d.DateKey == dateKey {
			return d, true
		}
	}
	return DayRow{}, false
}

// BuildReport groups events by local date, accounts every day and sums the
// totals. Apply FilterMonth or FilterRange to events first to restrict the
// period; filtering never changes how a single day is computed.
func BuildReport(events []model.AttendanceEvent, rates model.RateTable, loc *time.Location) (*Report, error) {
	days, err := GroupByDay(events, loc)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	// yyyy-mm-dd keys sort chronologically as strings
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	report := &Report{Days: make([]DayRow, 0, len(keys))}
	for _, key := range keys {
		row, err := buildRow(key, days[key], rates, loc)
		if err != nil {
			return nil, err
		}
		report.Days = append(report.Days, row)
		report.TotalWorkedMinutes += row.Summary.WorkedMinutes
		report.TotalBreakMinutes += row.Summary.BreakMinutes
	}

	report.TotalEarnings = TotalEarnings(report.Summaries())
	report.TotalWorked = FormatDuration(report.TotalWorkedMinutes)
	report.TotalBreak = FormatDuration(report.TotalBreakMinutes)
	report.TotalEarningsText = FormatMoney(report.TotalEarnings)
	return report, nil
}

func buildRow(key string, events []model.AttendanceEvent, rates model.RateTable, loc *time.Location) (DayRow, error) {
	summary, err := Summarize(key, events, rates, loc)
	if err != nil {
		return DayRow{}, err
	}

	row := DayRow{
		DateKey:    key,
		Date:       FormatDate(summary.Date, loc),
		Arrivals:   []string{},
		Departures: []string{},
		Breaks:     []string{},
		Summary:    summary,
		Worked:     FormatDuration(summary.WorkedMinutes),
		BreakTime:  FormatDuration(summary.BreakMinutes),
		Earnings:   FormatMoney(summary.Earnings),
	}

	var notes []string
	for _, ev := range SortByTime(events) {
		switch ev.Kind {
		case model.KindArrival:
			row.Arrivals = append(row.Arrivals, FormatTime(ev.Timestamp, loc))
		case model.KindDeparture:
			row.Departures = append(row.Departures, FormatTime(ev.Timestamp, loc))
		case model.KindBreak:
			row.Breaks = append(row.Breaks, FormatTime(ev.Timestamp, loc))
		case model.KindVacation, model.KindSick:
		}
		if ev.IsCustom {
			notes = append(notes, customNote(ev))
		}
	}
	if summary.HasCustomEntry {
		row.Annotation = strings.Join(notes, "; ")
	}
	return row, nil
}

func customNote(ev model.AttendanceEvent) string {
	if note := strings.TrimSpace(ev.ChangeNote); note != "" {
		return note
	}
	return ManualEditMarker
}

// FilterMonth keeps events whose local date falls in the given month.
func FilterMonth(events []model.AttendanceEvent, year int, month time.Month, loc *time.Location) []model.AttendanceEvent {
	from := time.Date(year, month, 1, 0, 0, 0, 0, location(loc))
	return FilterRange(events, from, from.AddDate(0, 1, 0))
}

// FilterRange keeps events with from <= timestamp < to. The input is not modified.
func FilterRange(events []model.AttendanceEvent, from, to time.Time) []model.AttendanceEvent {
	out := make([]model.AttendanceEvent, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.Before(from) || !ev.Timestamp.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
