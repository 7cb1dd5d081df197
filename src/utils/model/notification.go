package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableNotification = "notifications"

type NotificationType string

const (
	NotificationTypeTransactionStarted   NotificationType = "transaction_started"
	NotificationTypeTransactionConfirmed NotificationType = "transaction_confirmed"
	NotificationTypeTransactionCompleted NotificationType = "transaction_completed"
	NotificationTypeDisputeCreated       NotificationType = "dispute_created"
	NotificationTypeDisputeResolved      NotificationType = "dispute_resolved"
	NotificationTypeReviewReceived       NotificationType = "review_received"
)

type Notification struct {
	Id int64 `gorm:"primaryKey"`

	// Stable idempotency key derived from the source event,
	// so replayed events don't create duplicate notifications
	DedupKey string `gorm:"uniqueIndex"`

	RecipientWallet string `gorm:"index"`
	Type            NotificationType
	Title           string
	Message         string
	Data            pgtype.JSONB `gorm:"type:jsonb"`

	CreatedAt time.Time
	IsRead    bool
}

func (Notification) TableName() string {
	return TableNotification
}
