package types

import (
	"time"
)

// NotificationConfig is one threshold rule owned by a user. ClusterID is only
// meaningful for cluster_alert rules.
type NotificationConfig struct {
	ID               int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64              `gorm:"not null;index:idx_notification_configs_user_id" json:"user_id"`
	ProductID        int64              `gorm:"not null;index:idx_notification_configs_product_id" json:"product_id"`
	NotificationType NotificationType   `gorm:"size:50;not null" json:"notification_type"`
	Threshold        float64            `gorm:"not null" json:"threshold"`
	Period           NotificationPeriod `gorm:"size:20;not null;default:monthly" json:"period"`
	ClusterID        *int64             `json:"cluster_id,omitempty"`
	Active           bool               `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (NotificationConfig) TableName() string {
	return "notification_configs"
}
