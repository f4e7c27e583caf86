package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeICSDocumentShape(t *testing.T) {
	event := CalendarEvent{
		ID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Title:       "Review; planning, part 1",
		Description: "Line one\nLine two",
		Location:    "HQ",
		StartAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC),
	}

	doc := EncodeICS([]CalendarEvent{event})

	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR"))
	assert.Contains(t, doc, "VERSION:2.0\r\n")
	assert.Contains(t, doc, "PRODID:-//Planwise//Calendar//EN\r\n")
	assert.Contains(t, doc, "UID:11111111-2222-3333-4444-555555555555@planwise\r\n")
	assert.Contains(t, doc, "DTSTAMP:20240228T120000Z\r\n")
	assert.Contains(t, doc, "DTSTART:20240301T090000Z\r\n")
	assert.Contains(t, doc, "DTEND:20240301T103000Z\r\n")
	assert.Contains(t, doc, "SUMMARY:Review\\; planning\\, part 1\r\n")
	assert.Contains(t, doc, "DESCRIPTION:Line one\\nLine two\r\n")
	assert.Contains(t, doc, "LOCATION:HQ\r\n")
}

func TestEncodeICSEmpty(t *testing.T) {
	doc := EncodeICS(nil)
	assert.Contains(t, doc, "BEGIN:VCALENDAR")
	assert.Contains(t, doc, "END:VCALENDAR")
	assert.NotContains(t, doc, "BEGIN:VEVENT")
}

func TestEscapeICSTextOrdering(t *testing.T) {
	// A pre-escaped backslash sequence must not double-unescape.
	original := `back\slash; comma, and` + "\nnewline"
	escaped := escapeICSText(original)
	assert.Equal(t, `back\\slash\; comma\, and\nnewline`, escaped)
	assert.Equal(t, original, unescapeICSText(escaped))
}

func TestDecodeICSRoundTrip(t *testing.T) {
	event := CalendarEvent{
		ID:          uuid.New(),
		Title:       "Budget; review, Q2",
		Description: "Bring\nnumbers",
		Location:    "Room 2, floor 3",
		StartAt:     time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Now().UTC(),
	}

	decoded := DecodeICS(EncodeICS([]CalendarEvent{event}))
	require.Len(t, decoded, 1)

	assert.Equal(t, event.Title, decoded[0].Title)
	assert.Equal(t, event.Description, decoded[0].Description)
	assert.Equal(t, event.Location, decoded[0].Location)
	assert.True(t, decoded[0].StartAt.Equal(event.StartAt))
	assert.True(t, decoded[0].EndAt.Equal(event.EndAt))
}

func TestDecodeICSSkipsBrokenBlocks(t *testing.T) {
	raw := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"SUMMARY:Good event",
		"DTSTART:20240601T090000Z",
		"DTEND:20240601T100000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:Missing end time",
		"DTSTART:20240602T090000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:Garbage times",
		"DTSTART:not-a-date",
		"DTEND:also-not-a-date",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	decoded := DecodeICS(raw)
	require.Len(t, decoded, 1)
	assert.Equal(t, "Good event", decoded[0].Title)
}

func TestDecodeICSLenientInput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"empty input", "", 0},
		{"no vevents", "BEGIN:VCALENDAR\r\nEND:VCALENDAR", 0},
		{
			"lowercase keys and params accepted",
			"BEGIN:VEVENT\nsummary;language=en:Standup\ndtstart;TZID=UTC:20240601T090000\ndtend:20240601T091500Z\nEND:VEVENT",
			1,
		},
		{
			"date-only all-day form",
			"BEGIN:VEVENT\nSUMMARY:Offsite\nDTSTART:20240601\nDTEND:20240602\nEND:VEVENT",
			1,
		},
		{
			"unknown lines ignored",
			"BEGIN:VEVENT\nRRULE:FREQ=DAILY\nATTENDEE:mailto:a@b.c\nSUMMARY:Call\nDTSTART:20240601T090000Z\nDTEND:20240601T093000Z\nEND:VEVENT",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, DecodeICS(tt.raw), tt.expected)
		})
	}
}

func TestImportedEventDefaults(t *testing.T) {
	ownerID := uuid.New()
	imported := ImportedEvent{
		Title:   "Imported",
		StartAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	event := imported.Event(ownerID)

	assert.Equal(t, ownerID, event.OwnerID)
	assert.Equal(t, EventTypeMeeting, event.EventType)
	assert.Equal(t, VisibilityPersonal, event.Visibility)
	assert.Equal(t, StatusScheduled, event.Status)
	assert.Equal(t, RecurrenceNone, event.RecurrenceRule)
	assert.Equal(t, ExternalSourceICS, event.ExternalSource)
}
