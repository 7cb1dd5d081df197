package market_sync

import (
	"context"
	"errors"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/logger"
	"github.com/chainbazaar/syncer/src/utils/model"
	"github.com/chainbazaar/syncer/src/utils/monitoring"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persists the last fully-processed block height.
// The stored value never decreases.
type CheckpointStore struct {
	db        *gorm.DB
	component model.SyncedComponent
	log       *logrus.Entry
}

func NewCheckpointStore(db *gorm.DB, component model.SyncedComponent) *CheckpointStore {
	return &CheckpointStore{
		db:        db,
		component: component,
		log:       logger.NewSublogger("checkpoint-store"),
	}
}

// found is false when this component has never synced
func (self *CheckpointStore) Get(ctx context.Context) (height uint64, found bool, err error) {
	var state model.SyncState
	err = self.db.WithContext(ctx).
		Where("name = ?", self.component).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	// A zero height is the migration seed, not a real checkpoint
	return state.LastSyncedBlock, state.LastSyncedBlock > 0, nil
}

func (self *CheckpointStore) Save(ctx context.Context, height uint64) error {
	res := self.db.WithContext(ctx).
		Model(&model.SyncState{}).
		Where("name = ? AND last_synced_block < ?", self.component, height).
		Updates(map[string]interface{}{
			"last_synced_block": height,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Row may not exist yet. If it does, it's already ahead and is kept.
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SyncState{
			Name:            self.component,
			LastSyncedBlock: height,
			UpdatedAt:       time.Now(),
		}).Error
}

// Coalesces checkpoint advances coming from the event handlers and flushes
// them periodically, so the database isn't updated once per event
type CheckpointWriter struct {
	*task.Processor[uint64, uint64]

	store   *CheckpointStore
	monitor monitoring.Monitor

	savedHeight   uint64
	pendingHeight uint64
}

func NewCheckpointWriter(config *config.Config) (self *CheckpointWriter) {
	self = new(CheckpointWriter)

	self.Processor = task.NewProcessor[uint64, uint64](config, "checkpoint-writer").
		WithBatchSize(config.MarketSyncer.CheckpointBatchSize).
		WithOnFlush(config.MarketSyncer.CheckpointInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(0, config.MarketSyncer.CheckpointMaxBackoffInterval)

	return
}

func (self *CheckpointWriter) WithInputChannel(v chan uint64) *CheckpointWriter {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *CheckpointWriter) WithStore(v *CheckpointStore) *CheckpointWriter {
	self.store = v
	return self
}

func (self *CheckpointWriter) WithMonitor(v monitoring.Monitor) *CheckpointWriter {
	self.monitor = v
	return self
}

func (self *CheckpointWriter) process(height uint64) (out []uint64, err error) {
	if height > self.pendingHeight {
		self.pendingHeight = height
	}
	return
}

func (self *CheckpointWriter) flush([]uint64) (out []uint64, err error) {
	if self.pendingHeight == self.savedHeight {
		// Nothing changed
		return
	}

	err = self.store.Save(self.Ctx, self.pendingHeight)
	if err != nil {
		self.monitor.GetReport().MarketSyncer.Errors.CheckpointSaveFailures.Inc()
		return
	}

	self.savedHeight = self.pendingHeight
	self.monitor.GetReport().MarketSyncer.State.CheckpointHeight.Store(int64(self.savedHeight))
	self.Log.WithField("height", self.savedHeight).Debug("Checkpoint advanced")
	return
}
