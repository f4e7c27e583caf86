package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DomainNotifier provides a generic way for domains to create notifications
type DomainNotifier interface {
	// NotifyUser sends a notification to a specific user. data is an
	// optional payload linking back to the originating record.
	NotifyUser(ctx context.Context, userID uuid.UUID, notifType NotificationType, title, message string, data StringMap) error
}

type domainNotifierImpl struct {
	service Service
	logger  *logrus.Logger
}

// NewDomainNotifier creates a new domain notifier
func NewDomainNotifier(service Service, logger *logrus.Logger) DomainNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &domainNotifierImpl{service: service, logger: logger}
}

func (n *domainNotifierImpl) NotifyUser(ctx context.Context, userID uuid.UUID, notifType NotificationType, title, message string, data StringMap) error {
	if err := n.service.CreateForUser(userID, notifType, title, message, data); err != nil {
		n.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    notifType,
		}).WithError(err).Error("domain notification failed")
		return err
	}
	return nil
}
