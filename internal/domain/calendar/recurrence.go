package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Expand generates the instances of a recurrence root. It is pure: the
// caller persists the returned slice together with the root in one batch.
//
// requestedCount is clamped to [0, MaxRecurrenceInstances]. Expansion
// stops early the first time an advanced start would pass the root's
// RecurrenceUntil bound; that instance is not emitted. The bound has
// date granularity, so an instance landing on the until day is still
// emitted whatever time of day the bound carries. Each instance copies
// the root's attributes, points back at the root via
// RecurrenceParentID, and carries the advanced window.
func Expand(root *CalendarEvent, requestedCount int) []CalendarEvent {
	if requestedCount < 0 {
		requestedCount = 0
	}
	if requestedCount > MaxRecurrenceInstances {
		requestedCount = MaxRecurrenceInstances
	}
	if root.RecurrenceRule == "" || root.RecurrenceRule == RecurrenceNone {
		return nil
	}

	instances := make([]CalendarEvent, 0, requestedCount)
	start, end := root.StartAt, root.EndAt

	for i := 0; i < requestedCount; i++ {
		start, end = Advance(start, end, root.RecurrenceRule)
		if root.RecurrenceUntil != nil && untilExceeded(start, *root.RecurrenceUntil) {
			break
		}

		instance := *root
		instance.ID = uuid.Nil
		instance.StartAt = start
		instance.EndAt = end
		parentID := root.ID
		instance.RecurrenceParentID = &parentID
		instance.Reminders = nil
		instance.CreatedAt = time.Time{}
		instance.UpdatedAt = time.Time{}
		instances = append(instances, instance)
	}

	return instances
}

// untilExceeded compares an instance start against the until bound at
// date granularity in UTC. A bound encoded as midnight of its day must
// not cut off instances scheduled later that same day.
func untilExceeded(start, until time.Time) bool {
	sy, sm, sd := start.UTC().Date()
	uy, um, ud := until.UTC().Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	untilDay := time.Date(uy, um, ud, 0, 0, 0, 0, time.UTC)
	return startDay.After(untilDay)
}
