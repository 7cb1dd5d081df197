package market_sync

import (
	"math/big"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/monitoring"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func newBlockNumber(height uint64) *big.Int {
	return new(big.Int).SetUint64(height)
}

// Connects the marketplace contract to the dispatcher. On startup it
// replays history from the last checkpoint (or the configured window
// when there's none), then keeps a live log subscription open.
// A dropped subscription is reestablished with backoff and the gap is
// replayed from the checkpoint, so no event is lost in between.
type Listener struct {
	*task.Task

	client     ChainSource
	parser     *Parser
	checkpoint *CheckpointStore
	dispatcher *Dispatcher
	monitor    monitoring.Monitor

	contractAddress common.Address

	// Live events, consumed by the dispatcher
	Output chan *Event
}

func NewListener(config *config.Config) (self *Listener) {
	self = new(Listener)

	self.contractAddress = common.HexToAddress(config.MarketSyncer.ContractAddress)
	self.Output = make(chan *Event, config.MarketSyncer.EventChannelSize)

	self.Task = task.NewTask(config, "listener").
		WithSubtaskFunc(self.run).
		WithOnAfterStop(func() {
			close(self.Output)
		})

	return
}

func (self *Listener) WithChainSource(v ChainSource) *Listener {
	self.client = v
	return self
}

func (self *Listener) WithParser(v *Parser) *Listener {
	self.parser = v
	return self
}

func (self *Listener) WithCheckpointStore(v *CheckpointStore) *Listener {
	self.checkpoint = v
	return self
}

func (self *Listener) WithDispatcher(v *Dispatcher) *Listener {
	self.dispatcher = v
	return self
}

func (self *Listener) WithMonitor(v monitoring.Monitor) *Listener {
	self.monitor = v
	return self
}

func (self *Listener) filterQuery() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{self.contractAddress},
		Topics:    [][]common.Hash{self.parser.EventIds()},
	}
}

func (self *Listener) run() (err error) {
	err = self.backfill()
	if err != nil {
		if self.IsStopping.Load() {
			return nil
		}
		return err
	}

	return self.live()
}

// Replays historical events from the checkpoint (or the backfill window)
// up to the current head. Events are handled synchronously, in feed
// order, through the same handlers as live events.
func (self *Listener) backfill() (err error) {
	head, err := self.head()
	if err != nil {
		return err
	}

	checkpointHeight, found, err := self.checkpoint.Get(self.Ctx)
	if err != nil {
		return err
	}

	var from uint64
	if found {
		from = checkpointHeight + 1
	} else {
		window := self.Config.MarketSyncer.BackfillWindow
		if head > window {
			from = head - window
		}
		self.Log.WithField("from", from).Info("No checkpoint found, replaying the default window")
	}

	if from > head {
		self.Log.WithField("checkpoint", checkpointHeight).Info("Cache is up to date, nothing to backfill")
		return nil
	}

	self.Log.WithField("from", from).WithField("to", head).Info("Backfilling historical events")
	err = self.scanRange(from, head)
	if err != nil {
		return err
	}

	// The whole range is processed, even empty tail blocks count as synced
	self.dispatcher.AdvanceCheckpoint(head)
	self.Log.WithField("height", head).Info("Backfill finished")
	return nil
}

func (self *Listener) scanRange(from, to uint64) (err error) {
	batchSize := self.Config.MarketSyncer.BackfillBatchSize
	if batchSize == 0 {
		batchSize = 2000
	}

	for batchFrom := from; batchFrom <= to; batchFrom += batchSize {
		batchTo := batchFrom + batchSize - 1
		if batchTo > to {
			batchTo = to
		}

		var logs []types.Log
		err = task.NewRetry().
			WithContext(self.Ctx).
			WithMaxElapsedTime(0).
			WithMaxInterval(self.Config.MarketSyncer.SubscribeBackoffInterval).
			WithOnError(func(err error, isDurationAcceptable bool) error {
				self.monitor.GetReport().MarketSyncer.Errors.BackfillFailures.Inc()
				self.Log.WithError(err).
					WithField("from", batchFrom).
					WithField("to", batchTo).
					Warn("Failed to fetch logs, retrying...")
				return err
			}).
			Run(func() error {
				query := self.filterQuery()
				query.FromBlock = newBlockNumber(batchFrom)
				query.ToBlock = newBlockNumber(batchTo)
				var err error
				logs, err = self.client.FilterLogs(self.Ctx, query)
				return err
			})
		if err != nil {
			return err
		}

		for _, vLog := range logs {
			event, err := self.parser.Parse(vLog)
			if err != nil {
				self.monitor.GetReport().MarketSyncer.Errors.ParserFailures.Inc()
				self.Log.WithError(err).
					WithField("txHash", vLog.TxHash.Hex()).
					WithField("logIndex", vLog.Index).
					Warn("Skipping unparsable log")
				continue
			}
			self.monitor.GetReport().MarketSyncer.State.EventsBackfilled.Inc()
			self.dispatcher.Dispatch(event)
		}

		self.monitor.GetReport().MarketSyncer.State.ListenerCurrentHeight.Store(int64(batchTo))

		if self.IsStopping.Load() {
			return nil
		}
	}

	return nil
}

// Keeps the live subscription open until the task stops. A dropped
// subscription triggers a gap replay from the checkpoint before the
// next subscribe, so events emitted while disconnected are not lost.
func (self *Listener) live() (err error) {
	for {
		select {
		case <-self.StopChannel:
			return nil
		default:
		}

		var logs chan types.Log
		var subscription ethereum.Subscription
		err = task.NewRetry().
			WithContext(self.Ctx).
			WithMaxElapsedTime(0).
			WithMaxInterval(self.Config.MarketSyncer.SubscribeBackoffInterval).
			WithOnError(func(err error, isDurationAcceptable bool) error {
				self.monitor.GetReport().MarketSyncer.Errors.ListenerFailures.Inc()
				self.Log.WithError(err).Warn("Failed to subscribe to contract logs, retrying...")
				return err
			}).
			Run(func() error {
				logs = make(chan types.Log, self.Config.MarketSyncer.EventChannelSize)
				var err error
				subscription, err = self.client.SubscribeFilterLogs(self.Ctx, self.filterQuery(), logs)
				return err
			})
		if err != nil {
			if self.IsStopping.Load() {
				return nil
			}
			return err
		}

		self.Log.Info("Live subscription established")
		err = self.consume(subscription, logs)
		subscription.Unsubscribe()
		if err == nil {
			// Clean shutdown
			return nil
		}

		self.monitor.GetReport().MarketSyncer.Errors.ListenerFailures.Inc()
		self.Log.WithError(err).Error("Live subscription dropped, replaying the gap")

		err = self.backfill()
		if err != nil {
			if self.IsStopping.Load() {
				return nil
			}
			return err
		}
	}
}

func (self *Listener) consume(subscription ethereum.Subscription, logs chan types.Log) (err error) {
	for {
		select {
		case <-self.StopChannel:
			return nil
		case err = <-subscription.Err():
			return err
		case vLog := <-logs:
			event, parseErr := self.parser.Parse(vLog)
			if parseErr != nil {
				self.monitor.GetReport().MarketSyncer.Errors.ParserFailures.Inc()
				self.Log.WithError(parseErr).
					WithField("txHash", vLog.TxHash.Hex()).
					WithField("logIndex", vLog.Index).
					Warn("Skipping unparsable log")
				continue
			}

			self.monitor.GetReport().MarketSyncer.State.ListenerCurrentHeight.Store(int64(vLog.BlockNumber))

			select {
			case <-self.StopChannel:
				return nil
			case self.Output <- event:
			}
		}
	}
}

func (self *Listener) head() (height uint64, err error) {
	err = task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(0).
		WithMaxInterval(self.Config.MarketSyncer.SubscribeBackoffInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			self.monitor.GetReport().MarketSyncer.Errors.ListenerFailures.Inc()
			self.Log.WithError(err).Warn("Failed to fetch the chain head, retrying...")
			return err
		}).
		Run(func() error {
			header, err := self.client.HeaderByNumber(self.Ctx, nil)
			if err != nil {
				return err
			}
			height = header.Number.Uint64()
			return nil
		})
	return
}
