package worker

import (
	"errors"
	"sync"
)

var (
	ErrPoolStarted = errors.New("worker pool has already been started")
	ErrPoolEmpty   = errors.New("worker pool has no workers")
)

// WorkerPool runs a fixed set of workers, each on its own goroutine.
type WorkerPool struct {
	mu      sync.Mutex
	workers []Worker
	wg      sync.WaitGroup
	started bool
}

func NewWorkerPool() *WorkerPool {
	return &WorkerPool{workers: make([]Worker, 0)}
}

// PushWorker inserts the workers provided in to the worker pool. Workers
// cannot be added once the pool has started.
func (pool *WorkerPool) PushWorker(workers ...Worker) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.started {
		return ErrPoolStarted
	}

	pool.workers = append(pool.workers, workers...)
	return nil
}

// Start runs every worker in the pool concurrently. Start does NOT
// block; use Wait to block until every worker has finished.
func (pool *WorkerPool) Start() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.started {
		return ErrPoolStarted
	}
	if len(pool.workers) == 0 {
		return ErrPoolEmpty
	}

	pool.started = true
	for _, worker := range pool.workers {
		pool.wg.Add(1)
		go func(w Worker) {
			defer pool.wg.Done()
			w.Start()
		}(worker)
	}

	return nil
}

// Wait blocks until every worker in the pool has returned.
func (pool *WorkerPool) Wait() {
	pool.wg.Wait()
}

// Working returns the number of workers which are currently executing.
func (pool *WorkerPool) Working() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	n := 0
	for _, w := range pool.workers {
		if w.Status() == Working {
			n++
		}
	}

	return n
}
