package market_sync

import (
	"context"
	"testing"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/model"
	monitor_market_syncer "github.com/chainbazaar/syncer/src/utils/monitoring/market_syncer"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestFanoutTestSuite(t *testing.T) {
	suite.Run(t, new(FanoutTestSuite))
}

type FanoutTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	fanout *Fanout
}

func (s *FanoutTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := newTestDb()
	s.Require().NoError(err)
	s.db = db
	s.fanout = NewFanout(config.Default(), db).
		WithMonitor(monitor_market_syncer.NewMonitor())
}

func (s *FanoutTestSuite) TestUserChannelIsLowercased() {
	s.Equal("user_0xabcdef", UserChannel("0xAbCdEf"))
}

func (s *FanoutTestSuite) TestNotifyPersistsAndQueues() {
	event := &Event{Name: EventTransactionStarted, TxHash: "0x1", LogIndex: 0}

	err := s.fanout.Notify(s.ctx, event, "0xBuyer",
		model.NotificationTypeTransactionStarted, "Transaction started", "message",
		map[string]interface{}{"transaction_id": 15})
	s.Require().NoError(err)

	var notifications []model.Notification
	s.Require().NoError(s.db.Find(&notifications).Error)
	s.Require().Len(notifications, 1)
	s.Equal("0xBuyer", notifications[0].RecipientWallet)

	msg := <-s.fanout.Output
	s.Equal(UserChannel("0xBuyer"), msg.Channel())
	s.Equal("0xBuyer", msg.Recipient)
}

func (s *FanoutTestSuite) TestReplayedEventNotifiesOnce() {
	event := &Event{Name: EventTransactionStarted, TxHash: "0x1", LogIndex: 0}

	for i := 0; i < 3; i++ {
		err := s.fanout.Notify(s.ctx, event, "0xBuyer",
			model.NotificationTypeTransactionStarted, "Transaction started", "message", nil)
		s.Require().NoError(err)
	}

	var count int64
	s.Require().NoError(s.db.Model(&model.Notification{}).Count(&count).Error)
	s.Equal(int64(1), count)

	// The realtime message went out once as well
	<-s.fanout.Output
	select {
	case <-s.fanout.Output:
		s.Fail("duplicate realtime message")
	default:
	}
}

func (s *FanoutTestSuite) TestSameEventDifferentRecipients() {
	event := &Event{Name: EventTransactionCompleted, TxHash: "0x2", LogIndex: 1}

	s.Require().NoError(s.fanout.Notify(s.ctx, event, "0xBuyer",
		model.NotificationTypeTransactionCompleted, "Done", "message", nil))
	s.Require().NoError(s.fanout.Notify(s.ctx, event, "0xSeller",
		model.NotificationTypeTransactionCompleted, "Done", "message", nil))

	var count int64
	s.Require().NoError(s.db.Model(&model.Notification{}).Count(&count).Error)
	s.Equal(int64(2), count)
}

func (s *FanoutTestSuite) TestBroadcastDropsWhenQueueFull() {
	conf := config.Default()
	conf.Redis.MaxQueueSize = 1
	fanout := NewFanout(conf, s.db).
		WithMonitor(monitor_market_syncer.NewMonitor())

	fanout.Broadcast(&RealtimeMessage{ChannelName: MarketplaceChannel})

	// Queue is full now, this must not block
	fanout.Broadcast(&RealtimeMessage{ChannelName: MarketplaceChannel})

	s.Len(fanout.Output, 1)
}
