package notification

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// StringMap stores loosely structured notification payloads as a JSON
// column, so consumers can link back to the originating record.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for StringMap", value)
	}
}

type NotificationType string

const (
	TypeReminderDue     NotificationType = "reminder_due"
	TypeEventInvitation NotificationType = "event_invitation"
	TypeEventChanged    NotificationType = "event_changed"
)

type NotificationStatus string

const (
	StatusUnread NotificationStatus = "unread"
	StatusRead   NotificationStatus = "read"
)

type Notification struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index:idx_notification_user"`
	Type      NotificationType   `json:"type" gorm:"type:varchar(50);not null"`
	Title     string             `json:"title" gorm:"type:varchar(255);not null"`
	Message   string             `json:"message" gorm:"type:text"`
	Data      StringMap          `json:"data,omitempty" gorm:"type:jsonb"`
	Status    NotificationStatus `json:"status" gorm:"type:varchar(20);not null;default:'unread'"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	return nil
}
