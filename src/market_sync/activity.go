package market_sync

import (
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/model"
	"github.com/chainbazaar/syncer/src/utils/monitoring"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/jackc/pgtype"
	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Write-only activity trail. Recording is non-blocking so a slow
// database never stalls reconciliation.
type ActivityWriter struct {
	*task.Processor[*model.ActivityEntry, *model.ActivityEntry]

	db      *gorm.DB
	monitor monitoring.Monitor

	Input chan *model.ActivityEntry
}

func NewActivityWriter(config *config.Config) (self *ActivityWriter) {
	self = new(ActivityWriter)

	self.Input = make(chan *model.ActivityEntry, config.MarketSyncer.WorkerQueueSize)

	self.Processor = task.NewProcessor[*model.ActivityEntry, *model.ActivityEntry](config, "activity-writer").
		WithBatchSize(config.MarketSyncer.ActivityBatchSize).
		WithOnFlush(config.MarketSyncer.ActivityFlushInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(0, config.MarketSyncer.CheckpointMaxBackoffInterval).
		WithInputChannel(self.Input)

	return
}

func (self *ActivityWriter) WithDb(v *gorm.DB) *ActivityWriter {
	self.db = v
	return self
}

func (self *ActivityWriter) WithMonitor(v monitoring.Monitor) *ActivityWriter {
	self.monitor = v
	return self
}

func (self *ActivityWriter) Record(wallet, action, entityType, entityId string, metadata map[string]interface{}) {
	var payload pgtype.JSONB
	err := payload.Set(metadata)
	if err != nil {
		self.Log.WithError(err).Error("Failed to encode activity metadata")
		return
	}

	entry := &model.ActivityEntry{
		Id:            xid.New().String(),
		WalletAddress: wallet,
		Action:        action,
		EntityType:    entityType,
		EntityId:      entityId,
		Metadata:      payload,
		CreatedAt:     time.Now(),
	}

	select {
	case self.Input <- entry:
	default:
		self.monitor.GetReport().MarketSyncer.Errors.ActivityEntrySaveFailures.Inc()
		self.Log.WithField("action", action).Warn("Activity queue full, entry dropped")
	}
}

func (self *ActivityWriter) process(entry *model.ActivityEntry) (out []*model.ActivityEntry, err error) {
	return []*model.ActivityEntry{entry}, nil
}

func (self *ActivityWriter) flush(entries []*model.ActivityEntry) (out []*model.ActivityEntry, err error) {
	if len(entries) == 0 {
		return
	}

	err = self.db.WithContext(self.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entries).Error
	if err != nil {
		self.monitor.GetReport().MarketSyncer.Errors.ActivityEntrySaveFailures.Inc()
		return
	}

	self.monitor.GetReport().MarketSyncer.State.ActivityEntriesSaved.Add(uint64(len(entries)))
	return
}
