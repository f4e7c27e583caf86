package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/planwise/backend/internal/domain/calendar"
)

// CreateEventRequest is the payload for creating an event or a
// recurrence series.
type CreateEventRequest struct {
	Title           string                  `json:"title" binding:"required"`
	Description     string                  `json:"description"`
	Location        string                  `json:"location"`
	StartAt         time.Time               `json:"start_at" binding:"required"`
	EndAt           time.Time               `json:"end_at" binding:"required"`
	AllDay          bool                    `json:"all_day"`
	EventType       string                  `json:"event_type"`
	Visibility      calendar.Visibility     `json:"visibility"`
	ProjectID       *uuid.UUID              `json:"project_id"`
	TaskID          *uuid.UUID              `json:"task_id"`
	SprintID        *uuid.UUID              `json:"sprint_id"`
	RecurrenceRule  calendar.RecurrenceRule `json:"recurrence_rule"`
	RecurrenceUntil *time.Time              `json:"recurrence_until"`
	InstanceCount   int                     `json:"instance_count"`
}

func (r *CreateEventRequest) ToServiceRequest() calendar.CreateEventRequest {
	return calendar.CreateEventRequest{
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		StartAt:         r.StartAt,
		EndAt:           r.EndAt,
		AllDay:          r.AllDay,
		EventType:       r.EventType,
		Visibility:      r.Visibility,
		ProjectID:       r.ProjectID,
		TaskID:          r.TaskID,
		SprintID:        r.SprintID,
		RecurrenceRule:  r.RecurrenceRule,
		RecurrenceUntil: r.RecurrenceUntil,
		InstanceCount:   r.InstanceCount,
	}
}

// UpdateEventRequest is a partial update; absent fields stay unchanged.
type UpdateEventRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Location    *string              `json:"location"`
	StartAt     *time.Time           `json:"start_at"`
	EndAt       *time.Time           `json:"end_at"`
	AllDay      *bool                `json:"all_day"`
	EventType   *string              `json:"event_type"`
	Visibility  *calendar.Visibility `json:"visibility"`
	ProjectID   *uuid.UUID           `json:"project_id"`
	Status      *string              `json:"status"`
}

func (r *UpdateEventRequest) ToServiceRequest() calendar.UpdateEventRequest {
	return calendar.UpdateEventRequest{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		AllDay:      r.AllDay,
		EventType:   r.EventType,
		Visibility:  r.Visibility,
		ProjectID:   r.ProjectID,
		Status:      r.Status,
	}
}

// RescheduleEventRequest carries raw timestamps; the service parses them
// and reports which one was malformed.
type RescheduleEventRequest struct {
	StartAt string `json:"start_at" binding:"required"`
	EndAt   string `json:"end_at" binding:"required"`
}

type CreateReminderRequest struct {
	Channel       calendar.ReminderChannel `json:"channel" binding:"required"`
	MinutesBefore int                      `json:"minutes_before"`
}

type UpdateReminderRequest struct {
	Channel       *calendar.ReminderChannel `json:"channel"`
	MinutesBefore *int                      `json:"minutes_before"`
}

// ListEventsQuery binds the listing filters from the query string.
// ProjectID and Visibility stay raw here; the handler parses them.
type ListEventsQuery struct {
	Start           string `form:"start"`
	End             string `form:"end"`
	ProjectID       string `form:"project_id"`
	Visibility      string `form:"visibility"`
	IncludeInsights bool   `form:"include_insights"`
	Timezone        string `form:"tz"`
}

// Filters parses the optional project and visibility filters.
func (q *ListEventsQuery) Filters() (*uuid.UUID, *calendar.Visibility, error) {
	var projectID *uuid.UUID
	if q.ProjectID != "" {
		parsed, err := uuid.Parse(q.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		projectID = &parsed
	}
	var visibility *calendar.Visibility
	if q.Visibility != "" {
		v := calendar.Visibility(q.Visibility)
		visibility = &v
	}
	return projectID, visibility, nil
}

type EventResponse struct {
	Event calendar.CalendarEvent `json:"event"`
}

type EventListResponse struct {
	Events   []calendar.CalendarEvent  `json:"events"`
	Insights *calendar.WorkloadSummary `json:"insights,omitempty"`
}

type EventsWithConflictsResponse struct {
	Events []calendar.EventWithConflicts `json:"events"`
}

type EventWithConflictsResponse struct {
	Event     calendar.CalendarEvent     `json:"event"`
	Conflicts []calendar.ConflictSummary `json:"conflicts"`
}

type ReminderResponse struct {
	Reminder calendar.EventReminder `json:"reminder"`
}

type ImportResultResponse struct {
	Imported int                      `json:"imported"`
	Events   []calendar.CalendarEvent `json:"events"`
}
