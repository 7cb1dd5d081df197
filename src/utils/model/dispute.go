package model

import (
	"database/sql"
	"time"
)

const TableDispute = "disputes"

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

type Dispute struct {
	DisputeId     uint64 `gorm:"primaryKey;autoIncrement:false"`
	TransactionId uint64

	InitiatorWallet string

	// The transaction party that is not the initiator
	DefendantWallet string

	Reason       string
	Status       DisputeStatus
	WinnerWallet string

	CreatedAt  time.Time
	ResolvedAt sql.NullTime
}

func (Dispute) TableName() string {
	return TableDispute
}
