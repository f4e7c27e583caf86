package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/backend/internal/domain/calendar"
	"github.com/planwise/backend/internal/domain/events"
	"github.com/planwise/backend/internal/domain/notification"
	"github.com/planwise/backend/internal/infrastructure/cache"
	"github.com/planwise/backend/pkg/logger"
)

// Scheduler drives the reminder dispatch loop: pending reminders whose
// send time has passed become notifications and are marked sent.
type Scheduler struct {
	repo      calendar.Repository
	notifier  notification.DomainNotifier
	redis     *cache.RedisClient
	logger    *logger.Logger
	interval  time.Duration
	batchSize int

	cancel context.CancelFunc
}

func NewScheduler(repo calendar.Repository, notifier notification.DomainNotifier, redis *cache.RedisClient, log *logger.Logger, interval time.Duration, batchSize int) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Scheduler{
		repo:      repo,
		notifier:  notifier,
		redis:     redis,
		logger:    log,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info("Reminder scheduler initialized",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize),
	)

	go func() {
		// Run immediately at startup
		s.dispatchDueReminders(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.dispatchDueReminders(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) dispatchDueReminders(ctx context.Context) {
	due, err := s.repo.DuePendingReminders(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		s.logger.Error("Failed to load due reminders", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	dispatched := 0
	for _, reminder := range due {
		title := fmt.Sprintf("Reminder: %s", reminder.EventTitle)
		message := fmt.Sprintf("%s starts at %s", reminder.EventTitle, reminder.EventStartAt.UTC().Format(time.RFC3339))

		data := notification.StringMap{
			"event_id": reminder.EventID.String(),
			"channel":  string(reminder.Channel),
		}
		if err := s.notifier.NotifyUser(ctx, reminder.OwnerID, notification.TypeReminderDue, title, message, data); err != nil {
			// Leave it pending; the next tick retries.
			s.logger.Error("Failed to dispatch reminder",
				zap.String("reminder_id", reminder.ReminderID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, reminder.ReminderID, time.Now().UTC()); err != nil {
			s.logger.Error("Failed to mark reminder sent",
				zap.String("reminder_id", reminder.ReminderID.String()),
				zap.Error(err),
			)
			continue
		}
		dispatched++

		if s.redis != nil {
			event := events.NewDashboardEvent(events.ReminderDispatched, reminder.OwnerID, reminder.EventID)
			if err := s.redis.PublishDashboardEvent(ctx, &event); err != nil {
				s.logger.Error("Failed to publish reminder dispatch event",
					zap.String("reminder_id", reminder.ReminderID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("Dispatched due reminders",
		zap.Int("due", len(due)),
		zap.Int("dispatched", dispatched),
	)
}
