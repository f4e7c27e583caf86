package calendar

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ICS timestamp format: UTC basic form, e.g. 20240101T090000Z.
const (
	icsTimeLayoutUTC   = "20060102T150405Z"
	icsTimeLayoutLocal = "20060102T150405"
	icsDateLayout      = "20060102"

	icsProdID = "-//Planwise//Calendar//EN"
)

var icsEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\;",
	",", "\\,",
	"\r\n", "\\n",
	"\n", "\\n",
)

var icsUnescaper = strings.NewReplacer(
	"\\\\", "\\",
	"\\;", ";",
	"\\,", ",",
	"\\n", "\n",
	"\\N", "\n",
)

func escapeICSText(s string) string   { return icsEscaper.Replace(s) }
func unescapeICSText(s string) string { return icsUnescaper.Replace(s) }

// icsUID derives the VEVENT UID from the event id. It is stable across
// re-encodes of the same event.
func icsUID(e *CalendarEvent) string {
	return e.ID.String() + "@planwise"
}

// EncodeICS renders events as an ICS document, CRLF-delimited. Events are
// emitted in the order given; callers sort by start time beforehand.
func EncodeICS(events []CalendarEvent) string {
	lines := make([]string, 0, 4+len(events)*9+1)
	lines = append(lines,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:"+icsProdID,
		"CALSCALE:GREGORIAN",
	)

	for i := range events {
		e := &events[i]
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+icsUID(e),
			"DTSTAMP:"+e.UpdatedAt.UTC().Format(icsTimeLayoutUTC),
			"DTSTART:"+e.StartAt.UTC().Format(icsTimeLayoutUTC),
			"DTEND:"+e.EndAt.UTC().Format(icsTimeLayoutUTC),
			"SUMMARY:"+escapeICSText(e.Title),
			"DESCRIPTION:"+escapeICSText(e.Description),
			"LOCATION:"+escapeICSText(e.Location),
			"END:VEVENT",
		)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n")
}

// icsLineKind tags the content lines the decoder recognizes. Everything
// else (RRULE, ATTENDEE, folded continuations, ...) is icsLineOther and
// ignored; that leniency is deliberate, not a gap to harden.
type icsLineKind int

const (
	icsLineOther icsLineKind = iota
	icsLineSummary
	icsLineDTStart
	icsLineDTEnd
	icsLineDescription
	icsLineLocation
)

type icsLine struct {
	kind  icsLineKind
	value string
}

// scanICSLine classifies one raw content line. Keys are matched
// case-insensitively; a ;PARAM=... suffix on the key is dropped.
func scanICSLine(raw string) icsLine {
	line := strings.TrimRight(raw, "\r")
	idx := strings.Index(line, ":")
	if idx < 0 {
		return icsLine{kind: icsLineOther}
	}

	key := line[:idx]
	value := line[idx+1:]
	if semi := strings.Index(key, ";"); semi >= 0 {
		key = key[:semi]
	}

	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "SUMMARY":
		return icsLine{kind: icsLineSummary, value: value}
	case "DTSTART":
		return icsLine{kind: icsLineDTStart, value: value}
	case "DTEND":
		return icsLine{kind: icsLineDTEnd, value: value}
	case "DESCRIPTION":
		return icsLine{kind: icsLineDescription, value: value}
	case "LOCATION":
		return icsLine{kind: icsLineLocation, value: value}
	default:
		return icsLine{kind: icsLineOther}
	}
}

// parseICSTime parses the UTC basic form, the same form without the Z
// suffix (treated as UTC), and the date-only all-day form.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		return time.Parse(icsTimeLayoutUTC, v)
	}
	if strings.Contains(v, "T") {
		return time.Parse(icsTimeLayoutLocal, v)
	}
	return time.Parse(icsDateLayout, v)
}

// ImportedEvent is the attribute set decoded from one accepted VEVENT.
type ImportedEvent struct {
	Title       string
	Description string
	Location    string
	StartAt     time.Time
	EndAt       time.Time
}

// DecodeICS extracts event attribute sets from raw ICS text, best-effort.
// A block missing SUMMARY, DTSTART or DTEND, or whose timestamps do not
// parse, is skipped silently; it never fails the whole decode.
func DecodeICS(raw string) []ImportedEvent {
	fragments := strings.Split(raw, "BEGIN:VEVENT")
	if len(fragments) < 2 {
		return nil
	}

	var accepted []ImportedEvent
	for _, fragment := range fragments[1:] {
		block := fragment
		if end := strings.Index(block, "END:VEVENT"); end >= 0 {
			block = block[:end]
		}
		if ev, ok := decodeVEvent(block); ok {
			accepted = append(accepted, ev)
		}
	}
	return accepted
}

func decodeVEvent(block string) (ImportedEvent, bool) {
	var (
		summary, dtStart, dtEnd *string
		description, location   string
	)

	for _, raw := range strings.Split(block, "\n") {
		line := scanICSLine(raw)
		switch line.kind {
		case icsLineSummary:
			if summary == nil {
				v := line.value
				summary = &v
			}
		case icsLineDTStart:
			if dtStart == nil {
				v := line.value
				dtStart = &v
			}
		case icsLineDTEnd:
			if dtEnd == nil {
				v := line.value
				dtEnd = &v
			}
		case icsLineDescription:
			if description == "" {
				description = line.value
			}
		case icsLineLocation:
			if location == "" {
				location = line.value
			}
		}
	}

	if summary == nil || dtStart == nil || dtEnd == nil {
		return ImportedEvent{}, false
	}

	startAt, err := parseICSTime(*dtStart)
	if err != nil {
		return ImportedEvent{}, false
	}
	endAt, err := parseICSTime(*dtEnd)
	if err != nil {
		return ImportedEvent{}, false
	}

	return ImportedEvent{
		Title:       unescapeICSText(strings.TrimSpace(*summary)),
		Description: unescapeICSText(strings.TrimSpace(description)),
		Location:    unescapeICSText(strings.TrimSpace(location)),
		StartAt:     startAt,
		EndAt:       endAt,
	}, true
}

// Event converts the decoded attribute set into a personal event for the
// importing user, applying the importer defaults.
func (i ImportedEvent) Event(ownerID uuid.UUID) CalendarEvent {
	return CalendarEvent{
		OwnerID:        ownerID,
		Title:          i.Title,
		Description:    i.Description,
		Location:       i.Location,
		StartAt:        i.StartAt,
		EndAt:          i.EndAt,
		EventType:      EventTypeMeeting,
		Visibility:     VisibilityPersonal,
		Status:         StatusScheduled,
		RecurrenceRule: RecurrenceNone,
		ExternalSource: ExternalSourceICS,
	}
}
