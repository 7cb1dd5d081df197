package market_sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/logger"
	"github.com/chainbazaar/syncer/src/utils/model"
	"github.com/chainbazaar/syncer/src/utils/monitoring"

	"github.com/jackc/pgtype"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Shared channel for public marketplace broadcasts
const MarketplaceChannel = "marketplace"

func UserChannel(wallet string) string {
	return "user_" + strings.ToLower(wallet)
}

// Payload pushed to the realtime transport
type RealtimeMessage struct {
	ChannelName string `json:"-"`

	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient,omitempty"`
	Title     string                 `json:"title,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func (self *RealtimeMessage) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

func (self *RealtimeMessage) Channel() string {
	return self.ChannelName
}

// Persists notifications and hands realtime messages to the publisher.
// Persistence is idempotent per source event; publishes are best-effort
// and never roll back a persisted notification.
type Fanout struct {
	db      *gorm.DB
	monitor monitoring.Monitor
	log     *logrus.Entry

	// Consumed by the realtime publisher task
	Output chan *RealtimeMessage
}

func NewFanout(config *config.Config, db *gorm.DB) (self *Fanout) {
	self = new(Fanout)
	self.db = db
	self.log = logger.NewSublogger("fanout")
	self.Output = make(chan *RealtimeMessage, config.Redis.MaxQueueSize)
	return
}

func (self *Fanout) WithMonitor(v monitoring.Monitor) *Fanout {
	self.monitor = v
	return self
}

// Stable per event and recipient, so replayed events don't create duplicates
func NotificationDedupKey(event *Event, recipient string) string {
	return fmt.Sprintf("%s:%d:%s", event.TxHash, event.LogIndex, strings.ToLower(recipient))
}

func (self *Fanout) Notify(ctx context.Context, event *Event, recipient string, notificationType model.NotificationType, title, message string, data map[string]interface{}) error {
	var payload pgtype.JSONB
	err := payload.Set(data)
	if err != nil {
		return err
	}

	notification := model.Notification{
		DedupKey:        NotificationDedupKey(event, recipient),
		RecipientWallet: recipient,
		Type:            notificationType,
		Title:           title,
		Message:         message,
		Data:            payload,
		CreatedAt:       time.Now(),
	}

	res := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(&notification)
	if res.Error != nil {
		self.monitor.GetReport().MarketSyncer.Errors.NotificationSaveFailures.Inc()
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Duplicate delivery of the source event, don't publish twice
		self.log.WithField("dedupKey", notification.DedupKey).Debug("Duplicate notification skipped")
		return nil
	}

	self.monitor.GetReport().MarketSyncer.State.NotificationsSaved.Inc()

	self.Broadcast(&RealtimeMessage{
		ChannelName: UserChannel(recipient),
		Type:        string(notificationType),
		Recipient:   recipient,
		Title:       title,
		Message:     message,
		Data:        data,
	})
	return nil
}

// Best-effort, non-blocking. A full publisher queue drops the message,
// the persisted notification stays retrievable through polling.
func (self *Fanout) Broadcast(msg *RealtimeMessage) {
	select {
	case self.Output <- msg:
		self.monitor.GetReport().MarketSyncer.State.RealtimeMessagesQueued.Inc()
	default:
		self.monitor.GetReport().MarketSyncer.Errors.RealtimePublishFailures.Inc()
		self.log.WithField("channel", msg.ChannelName).Warn("Realtime queue full, message dropped")
	}
}
