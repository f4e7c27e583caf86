package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planwise/backend/internal/domain/calendar"
	"github.com/planwise/backend/internal/domain/notification"
	"github.com/planwise/backend/pkg/logger"
)

// stubRepo embeds the interface so only the methods the dispatch loop
// touches need real implementations.
type stubRepo struct {
	calendar.Repository

	due    []calendar.DueReminder
	dueErr error
	sent   []uuid.UUID
}

func (s *stubRepo) DuePendingReminders(_ context.Context, _ time.Time, limit int) ([]calendar.DueReminder, error) {
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	if limit > 0 && len(s.due) > limit {
		return s.due[:limit], nil
	}
	return s.due, nil
}

func (s *stubRepo) MarkReminderSent(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.sent = append(s.sent, id)
	return nil
}

type stubNotifier struct {
	notified []notification.StringMap
	fail     bool
}

func (s *stubNotifier) NotifyUser(_ context.Context, _ uuid.UUID, _ notification.NotificationType, _, _ string, data notification.StringMap) error {
	if s.fail {
		return assert.AnError
	}
	s.notified = append(s.notified, data)
	return nil
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func dueReminder(title string, startAt time.Time) calendar.DueReminder {
	return calendar.DueReminder{
		ReminderID:   uuid.New(),
		EventID:      uuid.New(),
		OwnerID:      uuid.New(),
		EventTitle:   title,
		EventStartAt: startAt,
		Channel:      calendar.ReminderChannelEmail,
		SendAt:       startAt.Add(-15 * time.Minute),
	}
}

func TestDispatchMarksDueRemindersSent(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubRepo{due: []calendar.DueReminder{
		dueReminder("Standup", start),
		dueReminder("Retro", start.Add(time.Hour)),
	}}
	notifier := &stubNotifier{}

	s := NewScheduler(repo, notifier, nil, testLogger(), time.Minute, 100)
	s.dispatchDueReminders(context.Background())

	require.Len(t, notifier.notified, 2)
	assert.Equal(t, repo.due[0].EventID.String(), notifier.notified[0]["event_id"])
	assert.Equal(t, string(calendar.ReminderChannelEmail), notifier.notified[0]["channel"])
	assert.ElementsMatch(t,
		[]uuid.UUID{repo.due[0].ReminderID, repo.due[1].ReminderID},
		repo.sent)
}

func TestDispatchLeavesReminderPendingOnNotifyFailure(t *testing.T) {
	repo := &stubRepo{due: []calendar.DueReminder{
		dueReminder("Standup", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	}}
	notifier := &stubNotifier{fail: true}

	s := NewScheduler(repo, notifier, nil, testLogger(), time.Minute, 100)
	s.dispatchDueReminders(context.Background())

	assert.Empty(t, repo.sent, "a reminder that could not be delivered stays pending")
}

func TestDispatchRespectsBatchSize(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	for i := 0; i < 5; i++ {
		repo.due = append(repo.due, dueReminder("Event", start.Add(time.Duration(i)*time.Minute)))
	}
	notifier := &stubNotifier{}

	s := NewScheduler(repo, notifier, nil, testLogger(), time.Minute, 3)
	s.dispatchDueReminders(context.Background())

	assert.Len(t, repo.sent, 3)
}
