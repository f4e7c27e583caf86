package calendar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPersonal Visibility = "personal"
	VisibilityProject  Visibility = "project"
)

// RecurrenceRule is the repetition period of a recurrence root.
type RecurrenceRule string

const (
	RecurrenceNone    RecurrenceRule = "none"
	RecurrenceDaily   RecurrenceRule = "daily"
	RecurrenceWeekly  RecurrenceRule = "weekly"
	RecurrenceMonthly RecurrenceRule = "monthly"
)

type ReminderChannel string

const (
	ReminderChannelEmail ReminderChannel = "email"
	ReminderChannelPush  ReminderChannel = "push"
	ReminderChannelSMS   ReminderChannel = "sms"
)

type ReminderState string

const (
	ReminderStatePending   ReminderState = "pending"
	ReminderStateSent      ReminderState = "sent"
	ReminderStateCancelled ReminderState = "cancelled"
)

// Event type and status are free-form tags; these are the values the
// insight aggregator and the ICS importer recognize.
const (
	EventTypeMeeting = "meeting"
	EventTypeFocus   = "focus"

	StatusScheduled = "scheduled"

	ExternalSourceICS = "ics"
)

const (
	// MaxRecurrenceInstances caps how many instances one create can expand.
	MaxRecurrenceInstances = 30
	// MaxConflictResults caps the conflicts reported per event.
	MaxConflictResults = 5
	// OverloadedDayThreshold is the per-day event count that flags a day.
	OverloadedDayThreshold = 6
)

// CalendarEvent represents a single event, a recurrence root, or a
// generated instance of a root (RecurrenceParentID set).
type CalendarEvent struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID            uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index:idx_calendar_event_owner"`
	Title              string         `json:"title" gorm:"type:varchar(255);not null"`
	Description        string         `json:"description" gorm:"type:text"`
	StartAt            time.Time      `json:"start_at" gorm:"not null;index:idx_calendar_event_start"`
	EndAt              time.Time      `json:"end_at" gorm:"not null;index:idx_calendar_event_end"`
	AllDay             bool           `json:"all_day" gorm:"not null;default:false"`
	EventType          string         `json:"event_type" gorm:"type:varchar(50);not null;default:'meeting'"`
	Visibility         Visibility     `json:"visibility" gorm:"type:varchar(20);not null;default:'personal';index:idx_calendar_event_visibility"`
	Status             string         `json:"status" gorm:"type:varchar(50);not null;default:'scheduled'"`
	ProjectID          *uuid.UUID     `json:"project_id,omitempty" gorm:"type:uuid;index:idx_calendar_event_project"`
	TaskID             *uuid.UUID     `json:"task_id,omitempty" gorm:"type:uuid"`
	SprintID           *uuid.UUID     `json:"sprint_id,omitempty" gorm:"type:uuid"`
	Location           string         `json:"location,omitempty" gorm:"type:varchar(512)"`
	RecurrenceRule     RecurrenceRule `json:"recurrence_rule" gorm:"type:varchar(20);not null;default:'none'"`
	RecurrenceUntil    *time.Time     `json:"recurrence_until,omitempty"`
	RecurrenceParentID *uuid.UUID     `json:"recurrence_parent_id,omitempty" gorm:"type:uuid;index:idx_calendar_event_parent"`
	ExternalSource     string         `json:"external_source,omitempty" gorm:"type:varchar(50)"`
	ExternalID         string         `json:"external_id,omitempty" gorm:"type:varchar(255)"`
	CreatedAt          time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"not null"`

	Reminders []EventReminder `json:"reminders,omitempty" gorm:"foreignKey:EventID"`
}

// EventReminder is a notification request scoped to one event. SendAt is
// derived from the event start and MinutesBefore when the reminder is
// created or updated.
type EventReminder struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	EventID       uuid.UUID       `json:"event_id" gorm:"type:uuid;not null;index:idx_reminder_event"`
	Channel       ReminderChannel `json:"channel" gorm:"type:varchar(20);not null"`
	MinutesBefore int             `json:"minutes_before" gorm:"not null"`
	SendAt        time.Time       `json:"send_at" gorm:"not null;index:idx_reminder_send_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	State         ReminderState   `json:"state" gorm:"type:varchar(20);not null;default:'pending';index:idx_reminder_state"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null"`
}

func (CalendarEvent) TableName() string { return "calendar_events" }
func (EventReminder) TableName() string { return "event_reminders" }

func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (r *EventReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsRecurrenceRoot reports whether this event owns a series. An event with
// RecurrenceParentID set is never a root, whatever its rule says.
func (e *CalendarEvent) IsRecurrenceRoot() bool {
	return e.RecurrenceParentID == nil && e.RecurrenceRule != "" && e.RecurrenceRule != RecurrenceNone
}

// Duration returns the event's length.
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

func isValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPersonal, VisibilityProject:
		return true
	}
	return false
}

func isValidRecurrenceRule(r RecurrenceRule) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

func isValidReminderChannel(c ReminderChannel) bool {
	switch c {
	case ReminderChannelEmail, ReminderChannelPush, ReminderChannelSMS:
		return true
	}
	return false
}

// Validate checks the event's required fields and reports every failure
// keyed by field name.
func (e *CalendarEvent) Validate() error {
	v := &ValidationError{}
	if e.Title == "" {
		v.Add("title", "is required")
	}
	if e.OwnerID == uuid.Nil {
		v.Add("owner_id", "is required")
	}
	if e.StartAt.IsZero() {
		v.Add("start_at", "is required")
	}
	if e.EndAt.IsZero() {
		v.Add("end_at", "is required")
	}
	if !e.StartAt.IsZero() && !e.EndAt.IsZero() && !e.EndAt.After(e.StartAt) {
		v.Add("end_at", "must be after start_at")
	}
	if !isValidVisibility(e.Visibility) {
		v.Add("visibility", "must be personal or project")
	}
	if e.Visibility == VisibilityProject && e.ProjectID == nil {
		v.Add("project_id", "is required for project visibility")
	}
	if !isValidRecurrenceRule(e.RecurrenceRule) {
		v.Add("recurrence_rule", "must be none, daily, weekly or monthly")
	}
	if e.RecurrenceParentID != nil && e.ID != uuid.Nil && *e.RecurrenceParentID == e.ID {
		v.Add("recurrence_parent_id", "cannot reference the event itself")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Validate checks the reminder's fields.
func (r *EventReminder) Validate() error {
	v := &ValidationError{}
	if r.EventID == uuid.Nil {
		v.Add("event_id", "is required")
	}
	if r.MinutesBefore < 0 {
		v.Add("minutes_before", "must not be negative")
	}
	if !isValidReminderChannel(r.Channel) {
		v.Add("channel", "must be email, push or sms")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}
