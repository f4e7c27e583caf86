package notification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(n *Notification) error
	ListForUser(userID uuid.UUID, limit int) ([]Notification, error)
	MarkRead(id, userID uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(n *Notification) error {
	return r.db.Create(n).Error
}

func (r *gormRepository) ListForUser(userID uuid.UUID, limit int) ([]Notification, error) {
	var notifications []Notification
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *gormRepository) MarkRead(id, userID uuid.UUID) error {
	result := r.db.Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", StatusRead)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
