package market_sync

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/model"
	monitor_market_syncer "github.com/chainbazaar/syncer/src/utils/monitoring/market_syncer"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestListenerTestSuite(t *testing.T) {
	suite.Run(t, new(ListenerTestSuite))
}

type ListenerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	chain       *fakeChainSource
	checkpoints *CheckpointStore
	dispatcher  *Dispatcher
	listener    *Listener
	contractAbi abi.ABI
}

func (s *ListenerTestSuite) SetupTest() {
	db, err := newTestDb()
	s.Require().NoError(err)
	s.db = db

	s.contractAbi, err = abi.JSON(strings.NewReader(marketplaceAbiJson))
	s.Require().NoError(err)

	conf := config.Default()
	conf.MarketSyncer.ContractAddress = "0x5555555555555555555555555555555555555555"
	conf.MarketSyncer.BackfillWindow = 50
	conf.MarketSyncer.BackfillBatchSize = 1000

	monitor := monitor_market_syncer.NewMonitor()
	s.chain = newFakeChainSource(100)
	s.checkpoints = NewCheckpointStore(db, model.SyncedComponentMarketSyncer)

	s.dispatcher = NewDispatcher(conf).
		WithCacheStore(NewCacheStore(db)).
		WithResolver(NewResolver(conf).WithMonitor(monitor)).
		WithFanout(NewFanout(conf, db).WithMonitor(monitor)).
		WithActivityWriter(NewActivityWriter(conf).WithDb(db).WithMonitor(monitor)).
		WithChainSource(s.chain).
		WithMonitor(monitor)

	parser, err := NewParser()
	s.Require().NoError(err)

	s.listener = NewListener(conf).
		WithChainSource(s.chain).
		WithParser(parser).
		WithCheckpointStore(s.checkpoints).
		WithDispatcher(s.dispatcher).
		WithMonitor(monitor)
}

func (s *ListenerTestSuite) listingCreatedLog(listingId int64, block uint64) types.Log {
	abiEvent := s.contractAbi.Events[EventListingCreated]
	data, err := abiEvent.Inputs.NonIndexed().Pack(
		common.HexToAddress("0x2000000000000000000000000000000000000002"),
		"electronics", big.NewInt(1000), big.NewInt(0), "", false)
	s.Require().NoError(err)

	return types.Log{
		Topics:      []common.Hash{abiEvent.ID, common.BigToHash(big.NewInt(listingId))},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(listingId)),
	}
}

// Highest checkpoint advance the dispatcher emitted
func (s *ListenerTestSuite) lastCheckpointHeight() (last uint64) {
	for {
		select {
		case height := <-s.dispatcher.CheckpointHeights:
			last = height
		default:
			return
		}
	}
}

func (s *ListenerTestSuite) TestBackfillWithoutCheckpointUsesWindow() {
	s.chain.logs = []types.Log{
		s.listingCreatedLog(1, 60),
		s.listingCreatedLog(2, 95),
	}

	s.Require().NoError(s.listener.backfill())

	s.Require().Len(s.chain.queries, 1)
	s.Equal(uint64(50), s.chain.queries[0].FromBlock.Uint64())
	s.Equal(uint64(100), s.chain.queries[0].ToBlock.Uint64())

	for _, listingId := range []uint64{1, 2} {
		_, found, err := NewCacheStore(s.db).GetListing(s.listener.Ctx, listingId)
		s.Require().NoError(err)
		s.True(found)
	}

	// The whole scanned range counts as synced
	s.Equal(uint64(100), s.lastCheckpointHeight())
}

func (s *ListenerTestSuite) TestBackfillResumesFromCheckpoint() {
	s.Require().NoError(s.checkpoints.Save(s.listener.Ctx, 90))

	// Event below the checkpoint must not be refetched
	s.chain.logs = []types.Log{
		s.listingCreatedLog(1, 80),
		s.listingCreatedLog(2, 95),
	}

	s.Require().NoError(s.listener.backfill())

	s.Require().Len(s.chain.queries, 1)
	s.Equal(uint64(91), s.chain.queries[0].FromBlock.Uint64())
	s.Equal(uint64(100), s.chain.queries[0].ToBlock.Uint64())

	_, found, err := NewCacheStore(s.db).GetListing(s.listener.Ctx, 1)
	s.Require().NoError(err)
	s.False(found)

	_, found, err = NewCacheStore(s.db).GetListing(s.listener.Ctx, 2)
	s.Require().NoError(err)
	s.True(found)
}

func (s *ListenerTestSuite) TestBackfillSkipsWhenUpToDate() {
	s.Require().NoError(s.checkpoints.Save(s.listener.Ctx, 100))

	s.Require().NoError(s.listener.backfill())

	s.Empty(s.chain.queries)
	s.Zero(s.lastCheckpointHeight())
}

func (s *ListenerTestSuite) TestBackfillScansInBatches() {
	s.listener.Config.MarketSyncer.BackfillBatchSize = 4
	s.Require().NoError(s.checkpoints.Save(s.listener.Ctx, 90))

	s.Require().NoError(s.listener.backfill())

	s.Require().Len(s.chain.queries, 3)
	s.Equal(uint64(91), s.chain.queries[0].FromBlock.Uint64())
	s.Equal(uint64(94), s.chain.queries[0].ToBlock.Uint64())
	s.Equal(uint64(95), s.chain.queries[1].FromBlock.Uint64())
	s.Equal(uint64(98), s.chain.queries[1].ToBlock.Uint64())
	s.Equal(uint64(99), s.chain.queries[2].FromBlock.Uint64())
	s.Equal(uint64(100), s.chain.queries[2].ToBlock.Uint64())
}

func (s *ListenerTestSuite) TestBackfillSkipsUnparsableLogs() {
	s.chain.logs = []types.Log{
		{Topics: []common.Hash{common.HexToHash("0xbad")}, BlockNumber: 60},
		s.listingCreatedLog(2, 95),
	}

	s.Require().NoError(s.listener.backfill())

	_, found, err := NewCacheStore(s.db).GetListing(s.listener.Ctx, 2)
	s.Require().NoError(err)
	s.True(found)
}

func (s *ListenerTestSuite) TestLiveLogsReachTheOutputChannel() {
	subscription := &fakeSubscription{errs: make(chan error, 1)}
	logs := make(chan types.Log, 1)

	done := make(chan error, 1)
	go func() {
		done <- s.listener.consume(subscription, logs)
	}()

	logs <- s.listingCreatedLog(5, 101)

	event := <-s.listener.Output
	s.Equal(EventListingCreated, event.Name)
	s.Equal(uint64(101), event.BlockNumber)

	s.listener.Stop()
	s.NoError(<-done)
}

func (s *ListenerTestSuite) TestSubscriptionErrorIsReturned() {
	subscription := &fakeSubscription{errs: make(chan error, 1)}
	logs := make(chan types.Log, 1)

	done := make(chan error, 1)
	go func() {
		done <- s.listener.consume(subscription, logs)
	}()

	subscriptionErr := errors.New("connection reset")
	subscription.errs <- subscriptionErr
	s.Equal(subscriptionErr, <-done)
}
