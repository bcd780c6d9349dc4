package analytics

import (
	"fmt"
	"time"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Periods lists the accepted preset names.
var Periods = []string{
	"today", "yesterday", "this_week", "last_week", "this_month",
	"last_month", "this_year", "last_30_days", "last_90_days",
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// ResolvePeriod returns the window a preset covers relative to now.
// Weeks start on Monday.
func ResolvePeriod(period string, now time.Time) (DateRange, error) {
	var start, end time.Time

	switch period {
	case "today":
		start, end = startOfDay(now), endOfDay(now)

	case "yesterday":
		y := now.AddDate(0, 0, -1)
		start, end = startOfDay(y), endOfDay(y)

	case "this_week":
		start = startOfDay(now.AddDate(0, 0, -isoWeekday(now)+1))
		end = now

	case "last_week":
		wd := isoWeekday(now)
		start = startOfDay(now.AddDate(0, 0, -wd-6))
		end = endOfDay(now.AddDate(0, 0, -wd))

	case "this_month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = now

	case "last_month":
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)

	case "this_year":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end = now

	case "last_30_days":
		start, end = now.AddDate(0, 0, -30), now

	case "last_90_days":
		start, end = now.AddDate(0, 0, -90), now

	default:
		return DateRange{}, fmt.Errorf("unknown period: %s", period)
	}

	return DateRange{Start: start, End: end}, nil
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
