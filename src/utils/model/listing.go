package model

import (
	"time"

	"github.com/lib/pq"
)

const TableListing = "listings"

// Cache row derived from ListingCreated events.
// Only the sync engine writes last_synced-stamped fields.
type Listing struct {
	ListingId     uint64 `gorm:"primaryKey;autoIncrement:false"`
	OwnerWallet   string
	Category      string
	PriceAmount   string `gorm:"type:numeric"`
	DepositAmount string `gorm:"type:numeric"`
	ContentHash   string
	IsForRent     bool
	IsActive      bool
	Views         int64
	Favorites     int64

	// Off-chain metadata, resolved by content hash
	Title       string
	Description string
	Location    string
	Tags        pq.StringArray `gorm:"type:text[]"`
	Images      pq.StringArray `gorm:"type:text[]"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSynced time.Time
}

func (Listing) TableName() string {
	return TableListing
}
