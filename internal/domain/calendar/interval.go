package calendar

import "time"

// Advance shifts a [start, end) window forward by one recurrence period.
// The end is recomputed from the advanced start so the window keeps its
// exact duration; month arithmetic inherits time.AddDate's day-of-month
// rollover (Jan 31 + 1 month lands in early March).
func Advance(start, end time.Time, rule RecurrenceRule) (time.Time, time.Time) {
	duration := end.Sub(start)

	var next time.Time
	switch rule {
	case RecurrenceDaily:
		next = start.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		next = start.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		next = start.AddDate(0, 1, 0)
	default:
		return start, end
	}

	return next, next.Add(duration)
}

// Overlaps reports whether two half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
