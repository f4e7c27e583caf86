package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/planwise/backend/internal/api/handlers"
	"github.com/planwise/backend/internal/api/middleware"
)

// NotificationRoutes handles the setup of notification-related routes
type NotificationRoutes struct {
	handler   *handlers.NotificationHandler
	jwtSecret string
}

func NewNotificationRoutes(handler *handlers.NotificationHandler, jwtSecret string) *NotificationRoutes {
	return &NotificationRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all notification-related routes
func (nr *NotificationRoutes) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/notifications")
	group.Use(middleware.NewAuthMiddleware(nr.jwtSecret))

	group.GET("", nr.handler.ListNotifications)
	group.POST("/:id/read", nr.handler.MarkRead)
}
