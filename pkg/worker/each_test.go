package worker_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wgbh/bawstun/pkg/logger"
	"github.com/wgbh/bawstun/pkg/worker"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

func Test_Each_ProcessesEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	var sum atomic.Int64

	errs := worker.Each("sum", 3, items, func(i int) error {
		sum.Add(int64(i))
		return nil
	})

	assert.Len(t, errs, len(items))
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(55), sum.Load())
}

func Test_Each_ErrorsRecordedAtIndex(t *testing.T) {
	failure := errors.New("odd")
	errs := worker.Each("odd", 2, []int{0, 1, 2, 3}, func(i int) error {
		if i%2 == 1 {
			return failure
		}
		return nil
	})

	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], failure)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, errs[3], failure)
}

func Test_Each_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	worker.Each("bounded", 2, make([]struct{}, 8), func(struct{}) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(time.Millisecond * 10)
		running.Add(-1)
		return nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func Test_Each_NoItems(t *testing.T) {
	errs := worker.Each("empty", 4, []string{}, func(string) error {
		t.Fatal("fn must not be called")
		return nil
	})
	assert.Empty(t, errs)
}

type blockingTask struct{ release chan struct{} }

func (task *blockingTask) Execute(worker.Worker) error {
	<-task.release
	return nil
}

func Test_WorkerPool_Lifecycle(t *testing.T) {
	pool := worker.NewWorkerPool()
	assert.ErrorIs(t, pool.Start(), worker.ErrPoolEmpty)

	task := &blockingTask{release: make(chan struct{})}
	a, b := worker.NewWorker("a", task), worker.NewWorker("b", task)
	assert.Equal(t, worker.Idle, a.Status())
	assert.NoError(t, pool.PushWorker(a, b))
	assert.NoError(t, pool.Start())
	assert.ErrorIs(t, pool.Start(), worker.ErrPoolStarted)
	assert.ErrorIs(t, pool.PushWorker(worker.NewWorker("c", task)), worker.ErrPoolStarted)

	assert.Eventually(t, func() bool { return pool.Working() == 2 }, time.Second, time.Millisecond)
	close(task.release)
	pool.Wait()

	assert.Equal(t, 0, pool.Working())
	assert.Equal(t, worker.Finished, a.Status())
	assert.Equal(t, "FINISHED[2]", b.Status().String())
}
