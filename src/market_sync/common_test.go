package market_sync

import (
	"context"
	"math/big"
	"sync"

	"github.com/chainbazaar/syncer/src/utils/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// In-memory database with the cache schema, one per test
func newTestDb() (db *gorm.DB, err error) {
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return
	}

	err = db.AutoMigrate(
		&model.Listing{},
		&model.MarketTransaction{},
		&model.Dispute{},
		&model.Review{},
		&model.Notification{},
		&model.ActivityEntry{},
		&model.SyncState{},
		&model.DeadLetter{},
	)
	return
}

// Scripted ledger feed
type fakeChainSource struct {
	mtx sync.Mutex

	headHeight uint64
	blockTimes map[uint64]uint64
	logs       []types.Log

	// Captured FilterLogs ranges
	queries []ethereum.FilterQuery

	subscribeErr error
	logsChannel  chan<- types.Log
	subscription *fakeSubscription
}

func newFakeChainSource(headHeight uint64) *fakeChainSource {
	return &fakeChainSource{
		headHeight: headHeight,
		blockTimes: make(map[uint64]uint64),
	}
}

func (self *fakeChainSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	height := self.headHeight
	if number != nil {
		height = number.Uint64()
	}

	blockTime, ok := self.blockTimes[height]
	if !ok {
		blockTime = 1_700_000_000 + height
	}

	return &types.Header{
		Number: new(big.Int).SetUint64(height),
		Time:   blockTime,
	}, nil
}

func (self *fakeChainSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) (out []types.Log, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.queries = append(self.queries, q)

	from := q.FromBlock.Uint64()
	to := q.ToBlock.Uint64()
	for _, vLog := range self.logs {
		if vLog.BlockNumber >= from && vLog.BlockNumber <= to {
			out = append(out, vLog)
		}
	}
	return
}

func (self *fakeChainSource) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.subscribeErr != nil {
		return nil, self.subscribeErr
	}

	self.logsChannel = ch
	self.subscription = &fakeSubscription{errs: make(chan error, 1)}
	return self.subscription, nil
}

func (self *fakeChainSource) emit(vLog types.Log) {
	self.mtx.Lock()
	ch := self.logsChannel
	self.mtx.Unlock()
	ch <- vLog
}

type fakeSubscription struct {
	errs chan error
}

func (self *fakeSubscription) Unsubscribe() {}

func (self *fakeSubscription) Err() <-chan error {
	return self.errs
}
