package market_sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/monitoring"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	cache "github.com/patrickmn/go-cache"
)

// Runs one handler per ledger event type. Each handler reconciles the
// event into cache rows, fans out notifications and finally reports its
// block height to the checkpoint writer. Handlers for the same aggregate
// are serialized, everything else runs concurrently on the worker pool.
//
// A handler that keeps failing after bounded retries dead-letters its
// event and processing continues. Backfill calls Dispatch synchronously,
// live events arrive through the input channel. Both paths share the
// same handlers.
type Dispatcher struct {
	*task.Task

	input    chan *Event
	store    *CacheStore
	resolver *Resolver
	fanout   *Fanout
	activity *ActivityWriter
	chain    ChainSource
	monitor  monitoring.Monitor

	locks   *lockSet
	tracker *heightTracker

	blockTimes *cache.Cache

	// Consumed by the checkpoint writer
	CheckpointHeights chan uint64
}

func NewDispatcher(config *config.Config) (self *Dispatcher) {
	self = new(Dispatcher)

	self.locks = newLockSet()
	self.tracker = newHeightTracker()
	self.blockTimes = cache.New(10*time.Minute, 30*time.Minute)
	self.CheckpointHeights = make(chan uint64, config.MarketSyncer.EventChannelSize)

	self.Task = task.NewTask(config, "dispatcher").
		WithSubtaskFunc(self.run).
		WithWorkerPool(config.MarketSyncer.NumWorkers, config.MarketSyncer.WorkerQueueSize).
		WithOnAfterStop(func() {
			// Workers are drained by now, nothing will send anymore
			close(self.CheckpointHeights)
			close(self.fanout.Output)
			close(self.activity.Input)
		})

	return
}

func (self *Dispatcher) WithInputChannel(v chan *Event) *Dispatcher {
	self.input = v
	return self
}

func (self *Dispatcher) WithCacheStore(v *CacheStore) *Dispatcher {
	self.store = v
	return self
}

func (self *Dispatcher) WithResolver(v *Resolver) *Dispatcher {
	self.resolver = v
	return self
}

func (self *Dispatcher) WithFanout(v *Fanout) *Dispatcher {
	self.fanout = v
	return self
}

func (self *Dispatcher) WithActivityWriter(v *ActivityWriter) *Dispatcher {
	self.activity = v
	return self
}

func (self *Dispatcher) WithChainSource(v ChainSource) *Dispatcher {
	self.chain = v
	return self
}

func (self *Dispatcher) WithMonitor(v monitoring.Monitor) *Dispatcher {
	self.monitor = v
	return self
}

func (self *Dispatcher) run() (err error) {
	for event := range self.input {
		event := event
		self.monitor.GetReport().MarketSyncer.State.EventsLive.Inc()
		self.tracker.Begin(event.BlockNumber)
		self.SubmitToWorker(func() {
			self.process(event)
		})
	}
	return nil
}

// Synchronous dispatch, used by the historical backfill
func (self *Dispatcher) Dispatch(event *Event) {
	self.tracker.Begin(event.BlockNumber)
	self.process(event)
}

// Lets the backfill advance the checkpoint to the end of a fully
// scanned range even when the range contained no events
func (self *Dispatcher) AdvanceCheckpoint(height uint64) {
	select {
	case <-self.Ctx.Done():
	case self.CheckpointHeights <- height:
	}
}

func (self *Dispatcher) process(event *Event) {
	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(0).
		WithMaxRetries(self.Config.MarketSyncer.HandlerMaxRetries).
		WithMaxInterval(self.Config.MarketSyncer.HandlerBackoffInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().MarketSyncer.Errors.HandlerFailures.Inc()
			self.Log.WithError(err).
				WithField("event", event.Name).
				WithField("height", event.BlockNumber).
				Warn("Event handler failed, retrying...")
			return err
		}).
		Run(func() error {
			return self.reconcile(event)
		})
	if err != nil {
		self.deadLetter(event, err)
	}

	if advance := self.tracker.Done(event.BlockNumber); advance > 0 {
		self.AdvanceCheckpoint(advance)
	}
}

func (self *Dispatcher) reconcile(event *Event) error {
	switch payload := event.Payload.(type) {
	case *ListingCreated:
		return self.onListingCreated(event, payload)
	case *TransactionStarted:
		return self.onTransactionStarted(event, payload)
	case *TransactionConfirmed:
		return self.onTransactionConfirmed(event, payload)
	case *TransactionCompleted:
		return self.onTransactionCompleted(event, payload)
	case *DisputeCreated:
		return self.onDisputeCreated(event, payload)
	case *DisputeResolved:
		return self.onDisputeResolved(event, payload)
	case *ReviewSubmitted:
		return self.onReviewSubmitted(event, payload)
	default:
		return fmt.Errorf("no handler for event %s", event.Name)
	}
}

func (self *Dispatcher) deadLetter(event *Event, handlerErr error) {
	self.monitor.GetReport().MarketSyncer.Errors.DeadLetteredEvents.Inc()
	self.Log.WithError(handlerErr).
		WithField("event", event.Name).
		WithField("txHash", event.TxHash).
		WithField("height", event.BlockNumber).
		Error("Event handler kept failing, dead-lettering")

	err := self.store.SaveDeadLetter(self.Ctx, event, handlerErr)
	if err != nil {
		self.Log.WithError(err).Error("Failed to save dead letter")
	}
}

// Block timestamps are fetched lazily, only the handlers that stamp
// rows with wall-clock time pay for the extra feed call
func (self *Dispatcher) blockTime(height uint64) (t time.Time, err error) {
	key := strconv.FormatUint(height, 10)
	if cached, ok := self.blockTimes.Get(key); ok {
		return cached.(time.Time), nil
	}

	header, err := self.chain.HeaderByNumber(self.Ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block %d: %w", height, err)
	}

	t = time.Unix(int64(header.Time), 0).UTC()
	self.blockTimes.Set(key, t, cache.DefaultExpiration)
	return
}

func listingKey(id uint64) string {
	return "listing/" + strconv.FormatUint(id, 10)
}

func transactionKey(id uint64) string {
	return "transaction/" + strconv.FormatUint(id, 10)
}

func disputeKey(id uint64) string {
	return "dispute/" + strconv.FormatUint(id, 10)
}

func sameWallet(a, b string) bool {
	return strings.EqualFold(a, b)
}
