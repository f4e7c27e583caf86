package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/planwise/backend/internal/domain/project"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&project.Project{},
		&project.ProjectMember{},
		&CalendarEvent{},
		&EventReminder{},
	))
	return db
}

func storedEvent(ownerID uuid.UUID, title string, start, end time.Time) *CalendarEvent {
	return &CalendarEvent{
		OwnerID:        ownerID,
		Title:          title,
		StartAt:        start,
		EndAt:          end,
		EventType:      EventTypeMeeting,
		Visibility:     VisibilityPersonal,
		Status:         StatusScheduled,
		RecurrenceRule: RecurrenceNone,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	event := storedEvent(ownerID, "standup",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC))
	require.NoError(t, repo.CreateEvent(ctx, event))
	assert.NotEqual(t, uuid.Nil, event.ID)

	loaded, err := repo.GetAccessibleEvent(ctx, event.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "standup", loaded.Title)

	_, err = repo.GetAccessibleEvent(ctx, uuid.New(), ownerID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryBatchAtomicity(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	root := storedEvent(ownerID, "series",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	root.RecurrenceRule = RecurrenceDaily
	root.ID = uuid.New()

	// The second instance reuses the root's primary key, which must fail
	// the whole batch.
	good := *root
	good.ID = uuid.Nil
	good.StartAt = root.StartAt.AddDate(0, 0, 1)
	good.EndAt = root.EndAt.AddDate(0, 0, 1)
	bad := good
	bad.ID = root.ID
	bad.StartAt = root.StartAt.AddDate(0, 0, 2)
	bad.EndAt = root.EndAt.AddDate(0, 0, 2)

	err := repo.CreateEventBatch(ctx, root, []CalendarEvent{good, bad})
	require.Error(t, err)

	events, listErr := repo.ListAccessible(ctx, ownerID, EventFilter{})
	require.NoError(t, listErr)
	assert.Empty(t, events, "a failed batch persists nothing")
}

func TestRepositoryBatchStampsParentIDs(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	root := storedEvent(ownerID, "series",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	root.RecurrenceRule = RecurrenceWeekly

	instances := Expand(root, 2)
	require.NoError(t, repo.CreateEventBatch(ctx, root, instances))

	events, err := repo.ListAccessible(ctx, ownerID, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, e := range events {
		if e.ID == root.ID {
			assert.Nil(t, e.RecurrenceParentID)
			continue
		}
		require.NotNil(t, e.RecurrenceParentID)
		assert.Equal(t, root.ID, *e.RecurrenceParentID)
	}
}

func TestRepositoryVisibilityScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	member := uuid.New()
	outsider := uuid.New()

	proj := &project.Project{Name: "apollo", OwnerID: owner}
	require.NoError(t, db.Create(proj).Error)
	require.NoError(t, db.Create(&project.ProjectMember{
		ProjectID: proj.ID,
		UserID:    member,
	}).Error)

	projectEvent := storedEvent(owner, "kickoff",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	projectEvent.Visibility = VisibilityProject
	projectEvent.ProjectID = &proj.ID
	require.NoError(t, repo.CreateEvent(ctx, projectEvent))

	personalEvent := storedEvent(owner, "dentist",
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateEvent(ctx, personalEvent))

	ownerEvents, err := repo.ListAccessible(ctx, owner, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, ownerEvents, 2)

	memberEvents, err := repo.ListAccessible(ctx, member, EventFilter{})
	require.NoError(t, err)
	require.Len(t, memberEvents, 1)
	assert.Equal(t, "kickoff", memberEvents[0].Title)

	outsiderEvents, err := repo.ListAccessible(ctx, outsider, EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, outsiderEvents)

	_, err = repo.GetAccessibleEvent(ctx, projectEvent.ID, member)
	assert.NoError(t, err)
	_, err = repo.GetAccessibleEvent(ctx, personalEvent.ID, member)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListWindowAndOrder(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	for _, day := range []int{3, 1, 2} {
		e := storedEvent(ownerID, "e",
			time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, day, 10, 0, 0, 0, time.UTC))
		require.NoError(t, repo.CreateEvent(ctx, e))
	}

	all, err := repo.ListAccessible(ctx, ownerID, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].StartAt.After(all[i-1].StartAt))
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	windowed, err := repo.ListAccessible(ctx, ownerID, EventFilter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, 2, windowed[0].StartAt.Day())
}

func TestRepositoryOverlappingEvents(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	morning := storedEvent(ownerID, "morning",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateEvent(ctx, morning))

	adjacent := storedEvent(ownerID, "adjacent",
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateEvent(ctx, adjacent))

	overlapping, err := repo.OverlappingEvents(ctx, ownerID,
		time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		uuid.Nil, MaxConflictResults)
	require.NoError(t, err)
	require.Len(t, overlapping, 1, "the adjacent event shares only an endpoint")
	assert.Equal(t, "morning", overlapping[0].Title)

	// The checked event itself is excluded.
	self, err := repo.OverlappingEvents(ctx, ownerID,
		morning.StartAt, morning.EndAt, morning.ID, MaxConflictResults)
	require.NoError(t, err)
	assert.Empty(t, self)
}

func TestRepositoryDeleteSeries(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	root := storedEvent(ownerID, "series",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	root.RecurrenceRule = RecurrenceDaily
	instances := Expand(root, 3)
	require.NoError(t, repo.CreateEventBatch(ctx, root, instances))

	reminder := &EventReminder{
		EventID:       root.ID,
		Channel:       ReminderChannelEmail,
		MinutesBefore: 10,
		SendAt:        root.StartAt.Add(-10 * time.Minute),
		State:         ReminderStatePending,
	}
	require.NoError(t, repo.CreateReminder(ctx, reminder))

	require.NoError(t, repo.DeleteSeries(ctx, root.ID))

	events, err := repo.ListAccessible(ctx, ownerID, EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = repo.GetReminder(ctx, reminder.ID)
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestRepositoryReminderFlow(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	ownerID := uuid.New()

	event := storedEvent(ownerID, "review",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateEvent(ctx, event))

	due := &EventReminder{
		EventID:       event.ID,
		Channel:       ReminderChannelEmail,
		MinutesBefore: 30,
		SendAt:        event.StartAt.Add(-30 * time.Minute),
		State:         ReminderStatePending,
	}
	future := &EventReminder{
		EventID:       event.ID,
		Channel:       ReminderChannelPush,
		MinutesBefore: 0,
		SendAt:        event.StartAt,
		State:         ReminderStatePending,
	}
	require.NoError(t, repo.CreateReminder(ctx, due))
	require.NoError(t, repo.CreateReminder(ctx, future))

	now := event.StartAt.Add(-20 * time.Minute)
	pending, err := repo.DuePendingReminders(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ReminderID)
	assert.Equal(t, ownerID, pending[0].OwnerID)
	assert.Equal(t, "review", pending[0].EventTitle)

	sentAt := now.Add(time.Second)
	require.NoError(t, repo.MarkReminderSent(ctx, due.ID, sentAt))
	sent, err := repo.GetReminder(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, ReminderStateSent, sent.State)
	require.NotNil(t, sent.SentAt)

	// Cancelling only touches pending reminders.
	require.NoError(t, repo.CancelPendingReminders(ctx, event.ID))
	cancelled, err := repo.GetReminder(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, ReminderStateCancelled, cancelled.State)
	sent, err = repo.GetReminder(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, ReminderStateSent, sent.State)

	reminders, err := repo.RemindersForEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, reminders, 2)
}
