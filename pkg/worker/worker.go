package worker

import (
	"fmt"
	"sync/atomic"

	"github.com/wgbh/bawstun/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type (
	WorkerStatus int32

	// WorkerTask is the work performed by a worker. Execute is called once,
	// and the worker finishes when it returns.
	WorkerTask interface {
		Execute(Worker) error
	}

	Worker interface {
		Start()
		Status() WorkerStatus
		Label() string
	}

	taskWorker struct {
		label  string
		task   WorkerTask
		status atomic.Int32
	}
)

const (
	Idle WorkerStatus = iota
	Working
	Finished
)

func (s WorkerStatus) String() string {
	switch s {
	case Idle:
		return fmt.Sprintf("IDLE[%d]", s)
	case Working:
		return fmt.Sprintf("WORKING[%d]", s)
	case Finished:
		return fmt.Sprintf("FINISHED[%d]", s)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{label: label, task: task}
}

func (worker *taskWorker) Start() {
	workerLogger.Emit(logger.VERBOSE, "Starting worker %v\n", worker.label)
	worker.status.Store(int32(Working))
	if err := worker.task.Execute(worker); err != nil {
		workerLogger.Emit(logger.ERROR, "Worker %v has reported an error(%T): %v\n", worker.label, err, err.Error())
	}

	worker.status.Store(int32(Finished))
	workerLogger.Emit(logger.VERBOSE, "Worker %v has stopped\n", worker.label)
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return WorkerStatus(worker.status.Load())
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}
