package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableDeadLetter = "sync_dead_letters"

// An event whose handler kept failing after bounded retries.
// Kept for manual replay, processing of later events continues.
type DeadLetter struct {
	Id          int64 `gorm:"primaryKey"`
	EventName   string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	Payload     pgtype.JSONB `gorm:"type:jsonb"`
	Error       string
	CreatedAt   time.Time
}

func (DeadLetter) TableName() string {
	return TableDeadLetter
}
