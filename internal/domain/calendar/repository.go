package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface defines the data access methods for calendar events
type Repository interface {
	// Core event operations
	CreateEvent(ctx context.Context, event *CalendarEvent) error
	CreateEventBatch(ctx context.Context, root *CalendarEvent, instances []CalendarEvent) error
	GetAccessibleEvent(ctx context.Context, id, userID uuid.UUID) (*CalendarEvent, error)
	UpdateEvent(ctx context.Context, event *CalendarEvent) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	DeleteSeries(ctx context.Context, rootID uuid.UUID) error
	ListAccessible(ctx context.Context, userID uuid.UUID, filter EventFilter) ([]CalendarEvent, error)
	OverlappingEvents(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID uuid.UUID, limit int) ([]CalendarEvent, error)

	// Reminder operations
	CreateReminder(ctx context.Context, reminder *EventReminder) error
	UpdateReminder(ctx context.Context, reminder *EventReminder) error
	DeleteReminder(ctx context.Context, id uuid.UUID) error
	GetReminder(ctx context.Context, id uuid.UUID) (*EventReminder, error)
	RemindersForEvent(ctx context.Context, eventID uuid.UUID) ([]EventReminder, error)
	CancelPendingReminders(ctx context.Context, eventID uuid.UUID) error
	DuePendingReminders(ctx context.Context, now time.Time, limit int) ([]DueReminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// EventFilter defines the filtering options for listing events
type EventFilter struct {
	Start      *time.Time
	End        *time.Time
	ProjectID  *uuid.UUID
	Visibility *Visibility
}

// DueReminder joins a pending reminder with the event fields the
// dispatcher needs to compose the notification.
type DueReminder struct {
	ReminderID   uuid.UUID       `gorm:"column:reminder_id"`
	EventID      uuid.UUID       `gorm:"column:event_id"`
	OwnerID      uuid.UUID       `gorm:"column:owner_id"`
	EventTitle   string          `gorm:"column:event_title"`
	EventStartAt time.Time       `gorm:"column:event_start_at"`
	Channel      ReminderChannel `gorm:"column:channel"`
	SendAt       time.Time       `gorm:"column:send_at"`
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new calendar repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateEventBatch persists a recurrence root and its expanded instances
// in one transaction. Instance parent ids are stamped after the root
// insert so they reference the generated root id. Nothing is written if
// any insert fails.
func (r *repository) CreateEventBatch(ctx context.Context, root *CalendarEvent, instances []CalendarEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(root).Error; err != nil {
			return err
		}
		for i := range instances {
			instances[i].RecurrenceParentID = &root.ID
			if err := tx.Create(&instances[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// eventsOwnedBy builds the ownership half of the visibility predicate.
func (r *repository) eventsOwnedBy(userID uuid.UUID) *gorm.DB {
	return r.db.Where("owner_id = ?", userID)
}

// eventsVisibleToProjectMembers builds the membership half: project
// events whose project the user belongs to.
func (r *repository) eventsVisibleToProjectMembers(userID uuid.UUID) *gorm.DB {
	memberProjects := r.db.Table("project_members").
		Select("project_id").
		Where("user_id = ?", userID)
	return r.db.Where("visibility = ? AND project_id IN (?)", VisibilityProject, memberProjects)
}

// scopeAccessible limits a query to events the user may read: events
// they own, plus project-visible events of projects they are a member
// of. Applied before every read, export and conflict check.
func (r *repository) scopeAccessible(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(r.eventsOwnedBy(userID).Or(r.eventsVisibleToProjectMembers(userID)))
	}
}

func (r *repository) GetAccessibleEvent(ctx context.Context, id, userID uuid.UUID) (*CalendarEvent, error) {
	var event CalendarEvent
	err := r.db.WithContext(ctx).
		Scopes(r.scopeAccessible(userID)).
		Preload("Reminders").
		First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) UpdateEvent(ctx context.Context, event *CalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&EventReminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&CalendarEvent{}, "id = ?", id).Error
	})
}

// DeleteSeries removes a recurrence root together with all of its
// instances and their reminders in one transaction.
func (r *repository) DeleteSeries(ctx context.Context, rootID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seriesIDs := tx.Model(&CalendarEvent{}).
			Select("id").
			Where("id = ? OR recurrence_parent_id = ?", rootID, rootID)
		if err := tx.Where("event_id IN (?)", seriesIDs).Delete(&EventReminder{}).Error; err != nil {
			return err
		}
		return tx.
			Where("id = ? OR recurrence_parent_id = ?", rootID, rootID).
			Delete(&CalendarEvent{}).Error
	})
}

func (r *repository) ListAccessible(ctx context.Context, userID uuid.UUID, filter EventFilter) ([]CalendarEvent, error) {
	query := r.db.WithContext(ctx).
		Model(&CalendarEvent{}).
		Scopes(r.scopeAccessible(userID))

	if filter.Start != nil && filter.End != nil {
		query = query.Where("start_at < ? AND end_at > ?", filter.End, filter.Start)
	} else if filter.Start != nil {
		query = query.Where("end_at > ?", filter.Start)
	} else if filter.End != nil {
		query = query.Where("start_at < ?", filter.End)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Visibility != nil {
		query = query.Where("visibility = ?", filter.Visibility)
	}

	var events []CalendarEvent
	err := query.
		Preload("Reminders").
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}

// OverlappingEvents returns the user's accessible events whose half-open
// window intersects [start, end), ordered by start time. excludeID skips
// the event being checked against itself.
func (r *repository) OverlappingEvents(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID uuid.UUID, limit int) ([]CalendarEvent, error) {
	query := r.db.WithContext(ctx).
		Model(&CalendarEvent{}).
		Scopes(r.scopeAccessible(userID)).
		Where("start_at < ? AND end_at > ?", end, start)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []CalendarEvent
	err := query.Order("start_at ASC").Find(&events).Error
	return events, err
}

func (r *repository) CreateReminder(ctx context.Context, reminder *EventReminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *repository) UpdateReminder(ctx context.Context, reminder *EventReminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *repository) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&EventReminder{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (r *repository) GetReminder(ctx context.Context, id uuid.UUID) (*EventReminder, error) {
	var reminder EventReminder
	err := r.db.WithContext(ctx).First(&reminder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *repository) RemindersForEvent(ctx context.Context, eventID uuid.UUID) ([]EventReminder, error) {
	var reminders []EventReminder
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("send_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *repository) CancelPendingReminders(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&EventReminder{}).
		Where("event_id = ? AND state = ?", eventID, ReminderStatePending).
		Update("state", ReminderStateCancelled).Error
}

func (r *repository) DuePendingReminders(ctx context.Context, now time.Time, limit int) ([]DueReminder, error) {
	query := r.db.WithContext(ctx).
		Table("event_reminders").
		Select(`event_reminders.id AS reminder_id,
			event_reminders.event_id AS event_id,
			event_reminders.channel AS channel,
			event_reminders.send_at AS send_at,
			calendar_events.owner_id AS owner_id,
			calendar_events.title AS event_title,
			calendar_events.start_at AS event_start_at`).
		Joins("JOIN calendar_events ON calendar_events.id = event_reminders.event_id").
		Where("event_reminders.state = ? AND event_reminders.send_at <= ?", ReminderStatePending, now).
		Order("event_reminders.send_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var due []DueReminder
	err := query.Scan(&due).Error
	return due, err
}

func (r *repository) MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&EventReminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":   ReminderStateSent,
			"sent_at": sentAt,
		}).Error
}
