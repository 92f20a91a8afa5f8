package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// requestQueueSlackConstant keeps the bounded request queue slightly larger
// than the worker count so the pipeline stays saturated without letting the
// producer run arbitrarily far ahead.
const requestQueueSlackConstant = 2

const (
	workerStartedLogMessageConstant  = "worker started"
	workerFinishedLogMessageConstant = "worker finished"
	logFieldWorkerIndexConstant      = "worker_index"
	logFieldJobLabelConstant         = "job_label"
	jobDequeuedLogMessageConstant    = "job dequeued"
)

// resultQueue is an unbounded FIFO safe for concurrent producers and one
// consumer. Workers push completed jobs without ever blocking; the collector
// takes them either opportunistically or with a blocking wait.
type resultQueue struct {
	mutex         sync.Mutex
	arrivalSignal *sync.Cond
	completedJobs []*Job
}

func newResultQueue() *resultQueue {
	queue := &resultQueue{}
	queue.arrivalSignal = sync.NewCond(&queue.mutex)
	return queue
}

func (queue *resultQueue) push(completedJob *Job) {
	queue.mutex.Lock()
	queue.completedJobs = append(queue.completedJobs, completedJob)
	queue.mutex.Unlock()
	queue.arrivalSignal.Signal()
}

func (queue *resultQueue) tryTake() (*Job, bool) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	if len(queue.completedJobs) == 0 {
		return nil, false
	}
	takenJob := queue.completedJobs[0]
	queue.completedJobs = queue.completedJobs[1:]
	return takenJob, true
}

func (queue *resultQueue) take() *Job {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	for len(queue.completedJobs) == 0 {
		queue.arrivalSignal.Wait()
	}
	takenJob := queue.completedJobs[0]
	queue.completedJobs = queue.completedJobs[1:]
	return takenJob
}

// WorkerPool runs jobs on a fixed set of worker goroutines draining a bounded
// request channel. Stopping is cooperative: workers finish the job in hand
// but dequeue nothing further.
type WorkerPool struct {
	workerCount      int
	executionContext context.Context
	requestChannel   chan *Job
	stopChannel      chan struct{}
	stopOnce         sync.Once
	workerWaitGroup  sync.WaitGroup
	completed        *resultQueue
	runner           CommandRunner
	console          ConsoleSink
	logger           *zap.Logger
}

// NewWorkerPool constructs a pool of workerCount workers. The request channel
// capacity is workerCount plus a fixed slack, which is the system's
// backpressure bound.
func NewWorkerPool(workerCount int, runner CommandRunner, console ConsoleSink, logger *zap.Logger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if console == nil {
		console = NoopConsoleSink()
	}
	return &WorkerPool{
		workerCount:    workerCount,
		requestChannel: make(chan *Job, workerCount+requestQueueSlackConstant),
		stopChannel:    make(chan struct{}),
		completed:      newResultQueue(),
		runner:         runner,
		console:        console,
		logger:         logger,
	}
}

// Start launches the worker goroutines. The supplied context flows into
// every command execution.
func (pool *WorkerPool) Start(executionContext context.Context) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	pool.executionContext = executionContext
	pool.workerWaitGroup.Add(pool.workerCount)
	for workerIndex := 0; workerIndex < pool.workerCount; workerIndex++ {
		go pool.runWorker(workerIndex)
	}
}

// Submit enqueues a job, blocking while the bounded request queue is full.
// Submission fails with ErrEngineStopped once the pool has been stopped.
func (pool *WorkerPool) Submit(submittedJob *Job) error {
	select {
	case <-pool.stopChannel:
		return ErrEngineStopped
	default:
	}

	select {
	case pool.requestChannel <- submittedJob:
		return nil
	case <-pool.stopChannel:
		return ErrEngineStopped
	}
}

// TryTakeCompleted returns an already-completed job without blocking.
func (pool *WorkerPool) TryTakeCompleted() (*Job, bool) {
	return pool.completed.tryTake()
}

// TakeCompleted blocks until a completed job is available.
func (pool *WorkerPool) TakeCompleted() *Job {
	return pool.completed.take()
}

// Stop signals every worker to stop and joins them. In-flight commands run to
// completion; queued jobs that no worker picked up are never executed.
func (pool *WorkerPool) Stop() {
	pool.stopOnce.Do(func() {
		close(pool.stopChannel)
	})
	pool.workerWaitGroup.Wait()
}

func (pool *WorkerPool) runWorker(workerIndex int) {
	defer pool.workerWaitGroup.Done()
	pool.logger.Debug(workerStartedLogMessageConstant, zap.Int(logFieldWorkerIndexConstant, workerIndex))

	for {
		select {
		case <-pool.stopChannel:
			pool.logger.Debug(workerFinishedLogMessageConstant, zap.Int(logFieldWorkerIndexConstant, workerIndex))
			return
		case dequeuedJob := <-pool.requestChannel:
			// Both cases can be ready at once and select picks one at
			// random; stop must win, so a dequeued job is dropped when the
			// stop signal is already set.
			select {
			case <-pool.stopChannel:
				pool.logger.Debug(workerFinishedLogMessageConstant, zap.Int(logFieldWorkerIndexConstant, workerIndex))
				return
			default:
			}
			pool.logger.Debug(
				jobDequeuedLogMessageConstant,
				zap.Int(logFieldWorkerIndexConstant, workerIndex),
				zap.String(logFieldJobLabelConstant, dequeuedJob.Label),
			)
			dequeuedJob.Run(pool.executionContext, pool.runner, pool.console)
			pool.completed.push(dequeuedJob)
		}
	}
}
