package worker

import (
	"fmt"
	"sync"

	"github.com/wgbh/bawstun/pkg/logger"
)

type itemQueue[T any] struct {
	sync.Mutex
	next  int
	items []T
	errs  []error
	fn    func(T) error
}

func (q *itemQueue[T]) pop() (int, bool) {
	q.Lock()
	defer q.Unlock()

	if q.next >= len(q.items) {
		return 0, false
	}

	i := q.next
	q.next++
	return i, true
}

// Execute drains the queue, returning once no items remain.
func (q *itemQueue[T]) Execute(w Worker) error {
	for {
		i, ok := q.pop()
		if !ok {
			return nil
		}

		if err := q.fn(q.items[i]); err != nil {
			workerLogger.Emit(logger.WARNING, "Worker %v failed to process item %d: %v\n", w.Label(), i, err)
			q.errs[i] = err
		}
	}
}

// Each calls fn once for every item using a pool of at most 'concurrency'
// workers, and blocks until every item has been processed. The returned
// slice holds the error (if any) for each item, at the items index.
func Each[T any](label string, concurrency int, items []T, fn func(T) error) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	concurrency = max(1, min(concurrency, len(items)))
	queue := &itemQueue[T]{items: items, errs: errs, fn: fn}

	pool := NewWorkerPool()
	for i := 0; i < concurrency; i++ {
		pool.PushWorker(NewWorker(fmt.Sprintf("%s-%d", label, i), queue))
	}

	if err := pool.Start(); err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}

	pool.Wait()
	return errs
}
