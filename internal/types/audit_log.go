package types

import (
	"time"
)

// AuditLog records user-attributable actions, including automatic
// notification firings.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"index:idx_audit_logs_user_id" json:"user_id,omitempty"`
	Action    string    `gorm:"size:200;not null" json:"action"`
	Timestamp time.Time `gorm:"not null;autoCreateTime" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
