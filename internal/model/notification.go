package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enum constants
const (
	NotifApplicationUpdate = "APPLICATION_UPDATE"
	NotifWorkflowAssigned  = "WORKFLOW_ASSIGNED"
	NotifWorkflowOverdue   = "WORKFLOW_OVERDUE"
)

// NotificationChannel enum constants. Only IN_APP is delivered by this
// service; external channels are forwarded to the dispatcher and may fail
// without affecting the triggering operation.
const (
	ChannelInApp = "IN_APP"
	ChannelEmail = "EMAIL"
)

// SystemNotification is a persisted in-app notification. Writes are
// fire-and-forget from the engine's point of view: a failed insert is
// logged and never rolls back the loan mutation that produced it.
type SystemNotification struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	NotificationType string    `gorm:"type:varchar(30);not null" json:"notification_type"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	Message          string    `gorm:"type:text" json:"message"`
	Channel          string    `gorm:"type:varchar(20);not null;default:'IN_APP'" json:"channel"`
	IsRead           bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
