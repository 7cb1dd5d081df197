package publisher

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// A payload that knows which channel it is delivered on
type Message interface {
	encoding.BinaryMarshaler
	Channel() string
}

// Forwards messages to Redis pub/sub. Delivery is best-effort:
// a message that exhausts its retries is dropped with a log entry.
type RedisPublisher[In Message] struct {
	*task.Task

	client *redis.Client
	input  chan In
}

func NewRedisPublisher[In Message](config *config.Config, name string) (self *RedisPublisher[In]) {
	self = new(RedisPublisher[In])

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithWorkerPool(config.Redis.MaxWorkers, config.Redis.MaxQueueSize).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *RedisPublisher[In]) WithInputChannel(v chan In) *RedisPublisher[In] {
	self.input = v
	return self
}

func (self *RedisPublisher[In]) connect() (err error) {
	self.client = redis.NewClient(&redis.Options{
		ClientName:      fmt.Sprintf("bazaar/%s", self.Name),
		Addr:            fmt.Sprintf("%s:%d", self.Config.Redis.Host, self.Config.Redis.Port),
		Password:        self.Config.Redis.Password,
		Username:        self.Config.Redis.User,
		DB:              self.Config.Redis.DB,
		MinIdleConns:    self.Config.Redis.MinIdleConns,
		MaxIdleConns:    self.Config.Redis.MaxIdleConns,
		ConnMaxIdleTime: self.Config.Redis.ConnMaxIdleTime,
		PoolSize:        self.Config.Redis.MaxOpenConns,
		ConnMaxLifetime: self.Config.Redis.ConnMaxLifetime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return self.client.Ping(ctx).Err()
}

func (self *RedisPublisher[In]) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *RedisPublisher[In]) Publish(ctx context.Context, channel string, payload []byte) error {
	return self.client.Publish(ctx, channel, payload).Err()
}

func (self *RedisPublisher[In]) run() (err error) {
	for msg := range self.input {
		msg := msg
		self.SubmitToWorker(func() {
			payload, err := msg.MarshalBinary()
			if err != nil {
				self.Log.WithError(err).Error("Failed to marshal message")
				return
			}

			err = task.NewRetry().
				WithContext(self.Ctx).
				WithMaxElapsedTime(self.Config.Redis.MaxElapsedTime).
				WithMaxInterval(self.Config.Redis.MaxInterval).
				WithOnError(func(err error, isDurationAcceptable bool) error {
					if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
						return backoff.Permanent(err)
					}
					return err
				}).
				Run(func() error {
					return self.Publish(self.Ctx, msg.Channel(), payload)
				})
			if err != nil {
				self.Log.WithError(err).WithField("channel", msg.Channel()).
					Error("Failed to publish message, dropping")
			}
		})
	}
	return nil
}
