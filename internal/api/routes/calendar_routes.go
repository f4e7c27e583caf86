package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/planwise/backend/internal/api/handlers"
	"github.com/planwise/backend/internal/api/middleware"
)

// CalendarRoutes handles the setup of calendar-related routes
type CalendarRoutes struct {
	handler   *handlers.CalendarHandler
	jwtSecret string
}

// NewCalendarRoutes creates a new CalendarRoutes instance
func NewCalendarRoutes(handler *handlers.CalendarHandler, jwtSecret string) *CalendarRoutes {
	return &CalendarRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all calendar-related routes
func (cr *CalendarRoutes) RegisterRoutes(router *gin.Engine) {
	calendarGroup := router.Group("/api/calendar")
	calendarGroup.Use(middleware.NewAuthMiddleware(cr.jwtSecret))

	// ICS codec endpoints
	calendarGroup.GET("/export", cr.handler.ExportICS)
	calendarGroup.POST("/import", cr.handler.ImportICS)

	// Event routes
	events := calendarGroup.Group("/events")
	{
		events.POST("", cr.handler.CreateEvent)
		events.GET("", cr.handler.ListEvents)
		events.GET("/:id", cr.handler.GetEvent)
		events.PUT("/:id", cr.handler.UpdateEvent)
		events.DELETE("/:id", cr.handler.DeleteEvent)
		events.POST("/:id/reschedule", cr.handler.RescheduleEvent)

		// Reminder operations
		events.POST("/:id/reminders", cr.handler.AddReminder)
	}

	reminders := calendarGroup.Group("/reminders")
	{
		reminders.PUT("/:id", cr.handler.UpdateReminder)
		reminders.DELETE("/:id", cr.handler.DeleteReminder)
	}
}
