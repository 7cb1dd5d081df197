package model

import "time"

const TableSyncState = "sync_state"

type SyncedComponent string

const (
	SyncedComponentMarketSyncer SyncedComponent = "MarketSyncer"
)

// Checkpoint row. LastSyncedBlock is the highest block height fully
// reconciled into the cache and never decreases across updates.
type SyncState struct {
	Name            SyncedComponent `gorm:"primaryKey"`
	LastSyncedBlock uint64
	UpdatedAt       time.Time
}

func (SyncState) TableName() string {
	return TableSyncState
}
