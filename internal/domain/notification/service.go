package notification

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service interface {
	CreateForUser(userID uuid.UUID, notifType NotificationType, title, message string, data StringMap) error
	ListForUser(userID uuid.UUID, limit int) ([]Notification, error)
	MarkRead(id, userID uuid.UUID) error
}

type service struct {
	repo Repository
	log  *logrus.Logger
}

func NewService(repo Repository, log *logrus.Logger) Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{repo: repo, log: log}
}

func (s *service) CreateForUser(userID uuid.UUID, notifType NotificationType, title, message string, data StringMap) error {
	n := &Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.repo.Create(n); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    notifType,
		}).WithError(err).Error("failed to create notification")
		return err
	}

	s.log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         userID,
		"type":            notifType,
	}).Info("notification created")
	return nil
}

func (s *service) ListForUser(userID uuid.UUID, limit int) ([]Notification, error) {
	return s.repo.ListForUser(userID, limit)
}

func (s *service) MarkRead(id, userID uuid.UUID) error {
	return s.repo.MarkRead(id, userID)
}
