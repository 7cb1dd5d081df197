package model

import (
	"database/sql"
	"time"
)

const TableMarketTransaction = "market_transactions"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusActive    TransactionStatus = "ACTIVE"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusDisputed  TransactionStatus = "DISPUTED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

type TransactionKind string

const (
	TransactionKindSale TransactionKind = "SALE"
	TransactionKindRent TransactionKind = "RENT"
)

// Status moves only forward: PENDING -> ACTIVE -> COMPLETED,
// or ACTIVE -> DISPUTED. Confirmation flags accumulate while ACTIVE.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		// Re-asserting the current status is always allowed
		return true
	}
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusActive || next == TransactionStatusCancelled
	case TransactionStatusActive:
		return next == TransactionStatusCompleted ||
			next == TransactionStatusDisputed ||
			next == TransactionStatusCancelled
	case TransactionStatusDisputed:
		return next == TransactionStatusCompleted
	default:
		// COMPLETED and CANCELLED are terminal
		return false
	}
}

type MarketTransaction struct {
	TransactionId   uint64 `gorm:"primaryKey;autoIncrement:false"`
	ListingId       uint64
	BuyerWallet     string
	SellerWallet    string
	Amount          string `gorm:"type:numeric"`
	Status          TransactionStatus
	BuyerConfirmed  bool
	SellerConfirmed bool
	TxHash          string
	Kind            TransactionKind

	CreatedAt   time.Time
	CompletedAt sql.NullTime
	LastSynced  time.Time
}

func (MarketTransaction) TableName() string {
	return TableMarketTransaction
}
