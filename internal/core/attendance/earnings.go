package attendance

import (
	"time"

	"attendance.service/internal/core/model"
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// IsWeekend reports whether the calendar date of t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Earnings is (workedMinutes / 60) * rate, where rate is picked by day type.
func Earnings(workedMinutes int, isWeekend bool, rates model.RateTable) decimal.Decimal {
	if workedMinutes <= 0 {
		return decimal.Zero
	}
	rate := rates.For(isWeekend)
	if rate.IsNegative() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(workedMinutes)).Mul(rate).Div(minutesPerHour)
}

// TotalEarnings sums per-day earnings. Weekday and weekend rates differ, so
// the total is never recomputed from total hours.
func TotalEarnings(days []model.DaySummary) decimal.Decimal {
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.Earnings)
	}
	return total
}

// Summarize computes the DaySummary for one bucket produced by GroupByDay.
func Summarize(dateKey string, events []model.AttendanceEvent, rates model.RateTable, loc *time.Location) (model.DaySummary, error) {
	date, err := ParseDateKey(dateKey, loc)
	if err != nil {
		return model.DaySummary{}, err
	}

	tally := Account(events)
	weekend := IsWeekend(date)

	summary := model.DaySummary{
		Date:          date,
		WorkedMinutes: tally.WorkedMinutes,
		BreakMinutes:  tally.BreakMinutes,
		IsWeekend:     weekend,
		Earnings:      Earnings(tally.WorkedMinutes, weekend, rates),
	}

	var labels []string
	for _, ev := range SortByTime(events) {
		if ev.IsCustom {
			summary.HasCustomEntry = true
		}
		if ev.Kind.IsSpecial() {
			summary.HasSpecialEntry = true
			labels = appendUnique(labels, ev.Kind.Label())
		}
	}
	summary.SpecialLabel = joinLabels(labels)

	return summary, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
