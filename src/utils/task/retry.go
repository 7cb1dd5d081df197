package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx                context.Context
	maxElapsedTime     time.Duration
	maxInterval        time.Duration
	maxRetries         uint64
	acceptableDuration time.Duration
	onError            func(err error, isDurationAcceptable bool) error
}

func NewRetry() *Retry {
	return new(Retry)
}

func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// 0 means no limit on the number of retries
func (self *Retry) WithMaxRetries(maxRetries uint64) *Retry {
	self.maxRetries = maxRetries
	return self
}

// Errors that happen within this duration since the start are passed
// to the onError callback with isDurationAcceptable set to true
func (self *Retry) WithAcceptableDuration(acceptableDuration time.Duration) *Retry {
	self.acceptableDuration = acceptableDuration
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

// Callback may wrap the error with backoff.Permanent to stop retrying
func (self *Retry) WithOnError(v func(err error, isDurationAcceptable bool) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	b.MaxInterval = self.maxInterval

	startTime := time.Now()

	wrapped := func() error {
		err := f()
		if err == nil {
			return nil
		}
		if self.onError != nil {
			isDurationAcceptable := self.acceptableDuration <= 0 || time.Since(startTime) < self.acceptableDuration
			err = self.onError(err, isDurationAcceptable)
		}
		return err
	}

	var policy backoff.BackOff = backoff.WithContext(b, self.ctx)
	if self.maxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, self.maxRetries)
	}

	return backoff.Retry(wrapped, policy)
}
