package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(day, hour int, eventType string) CalendarEvent {
	return CalendarEvent{
		Title:     "e",
		StartAt:   time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC),
		EndAt:     time.Date(2024, 5, day, hour+1, 0, 0, 0, time.UTC),
		EventType: eventType,
	}
}

func TestSummarizeGroupsByDay(t *testing.T) {
	events := []CalendarEvent{
		eventAt(1, 9, EventTypeMeeting),
		eventAt(1, 11, EventTypeFocus),
		eventAt(2, 9, EventTypeMeeting),
	}

	summary := Summarize(events, time.UTC)

	assert.Equal(t, 3, summary.TotalEvents)
	assert.Equal(t, 0, summary.OverloadedDayCount)
	require.Len(t, summary.PerDay, 2)

	day1 := summary.PerDay["2024-05-01"]
	assert.Equal(t, 2, day1.TotalEvents)
	assert.Equal(t, 1, day1.MeetingCount)
	assert.Equal(t, 1, day1.FocusCount)
	assert.False(t, day1.Overloaded)

	day2 := summary.PerDay["2024-05-02"]
	assert.Equal(t, 1, day2.TotalEvents)
	assert.Equal(t, 1, day2.MeetingCount)
}

func TestSummarizeOverloadedDay(t *testing.T) {
	var events []CalendarEvent
	for hour := 8; hour < 8+OverloadedDayThreshold; hour++ {
		events = append(events, eventAt(6, hour, EventTypeMeeting))
	}

	summary := Summarize(events, time.UTC)

	assert.Equal(t, 1, summary.OverloadedDayCount)
	day := summary.PerDay["2024-05-06"]
	assert.True(t, day.Overloaded)
	assert.Equal(t, OverloadedDayThreshold, day.MeetingCount)
}

func TestSummarizeOneBelowThreshold(t *testing.T) {
	var events []CalendarEvent
	for hour := 8; hour < 8+OverloadedDayThreshold-1; hour++ {
		events = append(events, eventAt(6, hour, EventTypeMeeting))
	}

	summary := Summarize(events, time.UTC)
	assert.Equal(t, 0, summary.OverloadedDayCount)
	assert.False(t, summary.PerDay["2024-05-06"].Overloaded)
}

func TestSummarizeTimezoneGrouping(t *testing.T) {
	// 23:30 UTC on May 1 is already May 2 in UTC+2.
	event := CalendarEvent{
		Title:     "late call",
		StartAt:   time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC),
		EndAt:     time.Date(2024, 5, 2, 0, 30, 0, 0, time.UTC),
		EventType: EventTypeMeeting,
	}

	utcSummary := Summarize([]CalendarEvent{event}, time.UTC)
	_, inUTC := utcSummary.PerDay["2024-05-01"]
	assert.True(t, inUTC)

	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	shifted := Summarize([]CalendarEvent{event}, plusTwo)
	_, inShifted := shifted.PerDay["2024-05-02"]
	assert.True(t, inShifted)
}

func TestSummarizeNilLocationDefaultsUTC(t *testing.T) {
	events := []CalendarEvent{eventAt(1, 9, EventTypeMeeting)}
	summary := Summarize(events, nil)
	_, ok := summary.PerDay["2024-05-01"]
	assert.True(t, ok)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, time.UTC)
	assert.Equal(t, 0, summary.TotalEvents)
	assert.Empty(t, summary.PerDay)
}
