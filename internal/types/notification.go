package types

import (
	"time"
)

// Notification is one fired alert for a rule owner.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"not null;index:idx_notifications_user_id" json:"user_id"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"size:50;not null;index:idx_notifications_type" json:"type"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
