package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planwise/backend/internal/domain/events"
	"github.com/planwise/backend/internal/domain/notification"
	"github.com/planwise/backend/internal/infrastructure/cache"
)

// CreateEventRequest carries the attributes for a new event. When
// RecurrenceRule is set, InstanceCount asks for that many generated
// instances on top of the root.
type CreateEventRequest struct {
	Title           string
	Description     string
	Location        string
	StartAt         time.Time
	EndAt           time.Time
	AllDay          bool
	EventType       string
	Visibility      Visibility
	ProjectID       *uuid.UUID
	TaskID          *uuid.UUID
	SprintID        *uuid.UUID
	RecurrenceRule  RecurrenceRule
	RecurrenceUntil *time.Time
	InstanceCount   int
}

// UpdateEventRequest carries a partial update; nil fields are untouched.
type UpdateEventRequest struct {
	Title       *string
	Description *string
	Location    *string
	StartAt     *time.Time
	EndAt       *time.Time
	AllDay      *bool
	EventType   *string
	Visibility  *Visibility
	ProjectID   *uuid.UUID
	Status      *string
}

type CreateReminderRequest struct {
	Channel       ReminderChannel
	MinutesBefore int
}

type UpdateReminderRequest struct {
	Channel       *ReminderChannel
	MinutesBefore *int
}

// ConflictSummary is the projection of an event reported as conflicting.
type ConflictSummary struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// EventWithConflicts pairs a persisted event with the conflicts detected
// against the owner's other events.
type EventWithConflicts struct {
	Event     CalendarEvent     `json:"event"`
	Conflicts []ConflictSummary `json:"conflicts"`
}

// ListQuery filters an event listing. Start and End are raw RFC3339
// inputs; they are parsed here so the caller gets a ParseError naming
// the bad field.
type ListQuery struct {
	Start           string
	End             string
	ProjectID       *uuid.UUID
	Visibility      *Visibility
	IncludeInsights bool
	Location        *time.Location
}

type ListResult struct {
	Events   []CalendarEvent  `json:"events"`
	Insights *WorkloadSummary `json:"insights,omitempty"`
}

type ImportResult struct {
	Imported int             `json:"imported"`
	Events   []CalendarEvent `json:"events"`
}

// Service defines the business logic interface for calendar events
type Service interface {
	// Event operations
	ListEvents(ctx context.Context, userID uuid.UUID, query ListQuery) (*ListResult, error)
	CreateEvent(ctx context.Context, userID uuid.UUID, req CreateEventRequest) ([]EventWithConflicts, error)
	GetEvent(ctx context.Context, userID, id uuid.UUID) (*CalendarEvent, error)
	UpdateEvent(ctx context.Context, userID, id uuid.UUID, req UpdateEventRequest) (*EventWithConflicts, error)
	RescheduleEvent(ctx context.Context, userID, id uuid.UUID, startRaw, endRaw string) (*EventWithConflicts, error)
	DestroyEvent(ctx context.Context, userID, id uuid.UUID, deleteSeries bool) error
	FindConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]ConflictSummary, error)

	// ICS operations
	ExportICS(ctx context.Context, userID uuid.UUID, filter EventFilter) (string, error)
	ImportICS(ctx context.Context, userID uuid.UUID, raw string) (*ImportResult, error)

	// Reminder operations
	AddReminder(ctx context.Context, userID, eventID uuid.UUID, req CreateReminderRequest) (*EventReminder, error)
	UpdateReminder(ctx context.Context, userID, reminderID uuid.UUID, req UpdateReminderRequest) (*EventReminder, error)
	DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error
}

type service struct {
	repo     Repository
	notifier notification.DomainNotifier
	redis    *cache.RedisClient
	logger   *zap.Logger
}

// NewService creates a new calendar service instance
func NewService(repo Repository, notifier notification.DomainNotifier, redis *cache.RedisClient, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, notifier: notifier, redis: redis, logger: logger}
}

func (s *service) ListEvents(ctx context.Context, userID uuid.UUID, query ListQuery) (*ListResult, error) {
	filter := EventFilter{
		ProjectID:  query.ProjectID,
		Visibility: query.Visibility,
	}

	if query.Start != "" {
		start, err := time.Parse(time.RFC3339, query.Start)
		if err != nil {
			return nil, NewParseError("start", query.Start)
		}
		startUTC := start.UTC()
		filter.Start = &startUTC
	}
	if query.End != "" {
		end, err := time.Parse(time.RFC3339, query.End)
		if err != nil {
			return nil, NewParseError("end", query.End)
		}
		endUTC := end.UTC()
		filter.End = &endUTC
	}

	eventsList, err := s.repo.ListAccessible(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Events: eventsList}
	if query.IncludeInsights {
		summary := Summarize(eventsList, query.Location)
		result.Insights = &summary
	}
	return result, nil
}

func (s *service) CreateEvent(ctx context.Context, userID uuid.UUID, req CreateEventRequest) ([]EventWithConflicts, error) {
	root := &CalendarEvent{
		OwnerID:         userID,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartAt:         req.StartAt.UTC(),
		EndAt:           req.EndAt.UTC(),
		AllDay:          req.AllDay,
		EventType:       req.EventType,
		Visibility:      req.Visibility,
		Status:          StatusScheduled,
		ProjectID:       req.ProjectID,
		TaskID:          req.TaskID,
		SprintID:        req.SprintID,
		RecurrenceRule:  req.RecurrenceRule,
		RecurrenceUntil: req.RecurrenceUntil,
	}
	if root.EventType == "" {
		root.EventType = EventTypeMeeting
	}
	if root.Visibility == "" {
		root.Visibility = VisibilityPersonal
	}
	if root.RecurrenceRule == "" {
		root.RecurrenceRule = RecurrenceNone
	}
	if root.RecurrenceUntil != nil {
		untilUTC := root.RecurrenceUntil.UTC()
		root.RecurrenceUntil = &untilUTC
	}

	if err := root.Validate(); err != nil {
		return nil, err
	}

	instances := Expand(root, req.InstanceCount)
	for i := range instances {
		if err := instances[i].Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateEventBatch(ctx, root, instances); err != nil {
		s.logger.Error("failed to persist event batch",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	results := make([]EventWithConflicts, 0, 1+len(instances))
	persisted := append([]CalendarEvent{*root}, instances...)
	for i := range persisted {
		conflicts, err := s.FindConflicts(ctx, userID, persisted[i].StartAt, persisted[i].EndAt, persisted[i].ID)
		if err != nil {
			return nil, err
		}
		results = append(results, EventWithConflicts{Event: persisted[i], Conflicts: conflicts})
	}

	s.publishDashboardEvent(ctx, events.CalendarEventCreated, userID, root.ID)
	return results, nil
}

func (s *service) GetEvent(ctx context.Context, userID, id uuid.UUID) (*CalendarEvent, error) {
	return s.repo.GetAccessibleEvent(ctx, id, userID)
}

// getOwnedEvent loads an event for mutation. Non-owners get ErrNotFound
// even when they could read the event; visibility grants read only.
func (s *service) getOwnedEvent(ctx context.Context, userID, id uuid.UUID) (*CalendarEvent, error) {
	event, err := s.repo.GetAccessibleEvent(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != userID {
		return nil, ErrNotFound
	}
	return event, nil
}

func (s *service) UpdateEvent(ctx context.Context, userID, id uuid.UUID, req UpdateEventRequest) (*EventWithConflicts, error) {
	event, err := s.getOwnedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	rescheduled := false
	if req.StartAt != nil {
		event.StartAt = req.StartAt.UTC()
		rescheduled = true
	}
	if req.EndAt != nil {
		event.EndAt = req.EndAt.UTC()
		rescheduled = true
	}
	if req.AllDay != nil {
		event.AllDay = *req.AllDay
	}
	if req.EventType != nil {
		event.EventType = *req.EventType
	}
	if req.Visibility != nil {
		event.Visibility = *req.Visibility
	}
	if req.ProjectID != nil {
		event.ProjectID = req.ProjectID
	}
	if req.Status != nil {
		event.Status = *req.Status
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	if rescheduled {
		if err := s.repo.CancelPendingReminders(ctx, event.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	conflicts, err := s.FindConflicts(ctx, userID, event.StartAt, event.EndAt, event.ID)
	if err != nil {
		return nil, err
	}

	s.publishDashboardEvent(ctx, events.CalendarEventUpdated, userID, event.ID)
	return &EventWithConflicts{Event: *event, Conflicts: conflicts}, nil
}

// RescheduleEvent moves an event to a new window. Pending reminders are
// cancelled; their send times no longer match the event.
func (s *service) RescheduleEvent(ctx context.Context, userID, id uuid.UUID, startRaw, endRaw string) (*EventWithConflicts, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil, NewParseError("start_at", startRaw)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return nil, NewParseError("end_at", endRaw)
	}

	startUTC, endUTC := start.UTC(), end.UTC()
	return s.UpdateEvent(ctx, userID, id, UpdateEventRequest{
		StartAt: &startUTC,
		EndAt:   &endUTC,
	})
}

func (s *service) DestroyEvent(ctx context.Context, userID, id uuid.UUID, deleteSeries bool) error {
	event, err := s.getOwnedEvent(ctx, userID, id)
	if err != nil {
		return err
	}

	if deleteSeries && event.IsRecurrenceRoot() {
		err = s.repo.DeleteSeries(ctx, event.ID)
	} else {
		err = s.repo.DeleteEvent(ctx, event.ID)
	}
	if err != nil {
		return err
	}

	s.publishDashboardEvent(ctx, events.CalendarEventDeleted, userID, event.ID)
	return nil
}

// FindConflicts reports up to MaxConflictResults of the user's accessible
// events overlapping [start, end), ordered by start time.
func (s *service) FindConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]ConflictSummary, error) {
	overlapping, err := s.repo.OverlappingEvents(ctx, userID, start, end, excludeID, MaxConflictResults)
	if err != nil {
		return nil, err
	}

	conflicts := make([]ConflictSummary, 0, len(overlapping))
	for i := range overlapping {
		e := &overlapping[i]
		conflicts = append(conflicts, ConflictSummary{
			ID:      e.ID,
			Title:   e.Title,
			StartAt: e.StartAt,
			EndAt:   e.EndAt,
		})
	}
	return conflicts, nil
}

func (s *service) ExportICS(ctx context.Context, userID uuid.UUID, filter EventFilter) (string, error) {
	eventsList, err := s.repo.ListAccessible(ctx, userID, filter)
	if err != nil {
		return "", err
	}
	return EncodeICS(eventsList), nil
}

func (s *service) ImportICS(ctx context.Context, userID uuid.UUID, raw string) (*ImportResult, error) {
	decoded := DecodeICS(raw)
	if len(decoded) == 0 {
		return nil, ErrImportEmpty()
	}

	result := &ImportResult{}
	for _, imported := range decoded {
		event := imported.Event(userID)
		if err := event.Validate(); err != nil {
			s.logger.Warn("skipping invalid imported event",
				zap.String("title", event.Title),
				zap.Error(err))
			continue
		}
		if err := s.repo.CreateEvent(ctx, &event); err != nil {
			return nil, err
		}
		result.Imported++
		result.Events = append(result.Events, event)
	}
	if result.Imported == 0 {
		return nil, ErrImportEmpty()
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Imported %d events from ICS", result.Imported)
		data := notification.StringMap{"imported": strconv.Itoa(result.Imported)}
		if err := s.notifier.NotifyUser(ctx, userID, notification.TypeEventChanged, "Calendar import complete", msg, data); err != nil {
			s.logger.Warn("failed to notify user about import", zap.Error(err))
		}
	}

	s.publishDashboardEvent(ctx, events.CalendarEventImported, userID, uuid.Nil)
	return result, nil
}

func (s *service) AddReminder(ctx context.Context, userID, eventID uuid.UUID, req CreateReminderRequest) (*EventReminder, error) {
	event, err := s.getOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	reminder := &EventReminder{
		EventID:       event.ID,
		Channel:       req.Channel,
		MinutesBefore: req.MinutesBefore,
		SendAt:        event.StartAt.Add(-time.Duration(req.MinutesBefore) * time.Minute),
		State:         ReminderStatePending,
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateReminder(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *service) UpdateReminder(ctx context.Context, userID, reminderID uuid.UUID, req UpdateReminderRequest) (*EventReminder, error) {
	reminder, err := s.repo.GetReminder(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	event, err := s.getOwnedEvent(ctx, userID, reminder.EventID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}

	if req.Channel != nil {
		reminder.Channel = *req.Channel
	}
	if req.MinutesBefore != nil {
		reminder.MinutesBefore = *req.MinutesBefore
	}
	reminder.SendAt = event.StartAt.Add(-time.Duration(reminder.MinutesBefore) * time.Minute)

	if err := reminder.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReminder(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *service) DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error {
	reminder, err := s.repo.GetReminder(ctx, reminderID)
	if err != nil {
		return err
	}
	if _, err := s.getOwnedEvent(ctx, userID, reminder.EventID); err != nil {
		if err == ErrNotFound {
			return ErrReminderNotFound
		}
		return err
	}
	return s.repo.DeleteReminder(ctx, reminder.ID)
}

// publishDashboardEvent invalidates the user's cached dashboard views.
// Failures are logged, never surfaced; the write already succeeded.
func (s *service) publishDashboardEvent(ctx context.Context, eventType events.EventType, userID, entityID uuid.UUID) {
	if s.redis == nil {
		return
	}
	dashboardEvent := events.NewDashboardEvent(eventType, userID, entityID)
	if err := s.redis.PublishDashboardEvent(ctx, &dashboardEvent); err != nil {
		s.logger.Error("failed to publish dashboard event",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
