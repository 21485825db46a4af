package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Display layouts handed to exporters. They do not depend on the process locale.
const (
	DisplayDateLayout = "02.01.2006"
	DisplayTimeLayout = "15:04"
	noteDateLayout    = "2.1.2006"
)

// FormatDuration renders minutes as "Xh Ym".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(DisplayDateLayout)
}

func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(DisplayTimeLayout)
}

// FormatMoney renders an amount with exactly two decimals and a dot separator.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}
