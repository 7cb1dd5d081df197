package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableActivityEntry = "activity_entries"

// Write-only audit trail, off the reconciliation critical path
type ActivityEntry struct {
	Id            string `gorm:"primaryKey"`
	WalletAddress string `gorm:"index"`
	Action        string
	EntityType    string
	EntityId      string
	Metadata      pgtype.JSONB `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

func (ActivityEntry) TableName() string {
	return TableActivityEntry
}
