package model

import "time"

const TableReview = "reviews"

type Review struct {
	ReviewId      uint64 `gorm:"primaryKey;autoIncrement:false"`
	TransactionId uint64

	ReviewerWallet string
	RevieweeWallet string

	Rating      int16
	ContentHash string

	// Wall-clock time of the block that carried the event
	Timestamp time.Time
}

func (Review) TableName() string {
	return TableReview
}
