package calendar

import "time"

// DayInsight is the load summary for one calendar day.
type DayInsight struct {
	TotalEvents  int  `json:"total_events"`
	MeetingCount int  `json:"meeting_count"`
	FocusCount   int  `json:"focus_count"`
	Overloaded   bool `json:"overloaded"`
}

// WorkloadSummary aggregates load signals over a set of events.
type WorkloadSummary struct {
	TotalEvents        int                   `json:"total_events"`
	OverloadedDayCount int                   `json:"overloaded_day_count"`
	PerDay             map[string]DayInsight `json:"per_day"`
}

// Summarize groups events by the calendar date of their start in loc and
// computes per-day load. A day is overloaded at OverloadedDayThreshold
// events. Days are keyed YYYY-MM-DD.
func Summarize(events []CalendarEvent, loc *time.Location) WorkloadSummary {
	if loc == nil {
		loc = time.UTC
	}

	perDay := make(map[string]DayInsight)
	for i := range events {
		e := &events[i]
		day := e.StartAt.In(loc).Format("2006-01-02")

		insight := perDay[day]
		insight.TotalEvents++
		switch e.EventType {
		case EventTypeMeeting:
			insight.MeetingCount++
		case EventTypeFocus:
			insight.FocusCount++
		}
		insight.Overloaded = insight.TotalEvents >= OverloadedDayThreshold
		perDay[day] = insight
	}

	summary := WorkloadSummary{
		TotalEvents: len(events),
		PerDay:      perDay,
	}
	for _, insight := range perDay {
		if insight.Overloaded {
			summary.OverloadedDayCount++
		}
	}
	return summary
}
