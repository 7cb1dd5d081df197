package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestTaskTestSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

type TaskTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TaskTestSuite) SetupSuite() {
	s.config = config.Default()
}

func (s *TaskTestSuite) TestSubtaskStopsOnStopChannel() {
	started := make(chan struct{})

	task := NewTask(s.config, "test")
	task = task.WithSubtaskFunc(func() error {
		close(started)
		<-task.StopChannel
		return nil
	})

	s.Require().NoError(task.Start())
	<-started

	task.StopWait()

	select {
	case <-task.CtxRunning.Done():
	default:
		s.Fail("task still running after StopWait")
	}
}

func (s *TaskTestSuite) TestWorkerPoolDrainsBeforeAfterStop() {
	var order []string
	var mtx sync.Mutex

	task := NewTask(s.config, "test").
		WithWorkerPool(2, 10)
	task = task.
		WithSubtaskFunc(func() error {
			<-task.StopChannel
			return nil
		}).
		WithOnAfterStop(func() {
			mtx.Lock()
			order = append(order, "after-stop")
			mtx.Unlock()
		})

	s.Require().NoError(task.Start())

	for i := 0; i < 5; i++ {
		task.SubmitToWorker(func() {
			time.Sleep(10 * time.Millisecond)
			mtx.Lock()
			order = append(order, "job")
			mtx.Unlock()
		})
	}

	task.StopWait()

	mtx.Lock()
	defer mtx.Unlock()
	s.Require().Len(order, 6)

	// Every queued job ran before the after-stop hooks
	s.Equal("after-stop", order[5])
}

func (s *TaskTestSuite) TestSubtasksStopWithParent() {
	childStopped := atomic.NewBool(false)

	child := NewTask(s.config, "child")
	child = child.WithSubtaskFunc(func() error {
		<-child.StopChannel
		childStopped.Store(true)
		return nil
	})

	parent := NewTask(s.config, "parent").
		WithSubtask(child)

	s.Require().NoError(parent.Start())
	parent.StopWait()

	s.True(childStopped.Load())
}

func (s *TaskTestSuite) TestConditionalSubtaskSkipped() {
	child := NewTask(s.config, "child").
		WithSubtaskFunc(func() error {
			s.Fail("disabled subtask ran")
			return nil
		})

	parent := NewTask(s.config, "parent").
		WithConditionalSubtask(false, child)

	s.Require().NoError(parent.Start())
	parent.StopWait()
}

func (s *TaskTestSuite) TestPeriodicSubtask() {
	calls := atomic.NewInt64(0)

	task := NewTask(s.config, "test").
		WithPeriodicSubtaskFunc(time.Millisecond, func() error {
			calls.Inc()
			return nil
		})

	s.Require().NoError(task.Start())
	time.Sleep(20 * time.Millisecond)
	task.StopWait()

	s.Greater(calls.Load(), int64(1))
}

func TestRetryStopsAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := NewRetry().
		WithContext(context.Background()).
		WithMaxInterval(time.Millisecond).
		WithMaxRetries(2).
		Run(func() error {
			attempts++
			return errors.New("still failing")
		})

	assert.Error(t, err)
	// Initial attempt plus two retries
	assert.Equal(t, 3, attempts)
}

func TestRetryPermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	expected := errors.New("bad input")
	err := NewRetry().
		WithContext(context.Background()).
		WithMaxInterval(time.Millisecond).
		WithMaxRetries(10).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return expected
		})

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, 1, attempts)
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := NewRetry().
		WithContext(context.Background()).
		WithMaxInterval(time.Millisecond).
		WithMaxRetries(5).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
