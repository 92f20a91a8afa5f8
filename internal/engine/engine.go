package engine

import (
	"context"
	"io"

	"go.uber.org/zap"
)

const (
	failFastAbortLogMessageConstant = "aborting run after command failure"
	logFieldExitCodeConstant        = "exit_code"
	logFieldFailedCommandConstant   = "failed_command"
)

// Options is the fixed configuration surface of the engine.
type Options struct {
	// WorkerCount is the number of concurrent executors. With one worker the
	// engine runs jobs synchronously on the submitting goroutine, preserving
	// submission order.
	WorkerCount int
	// ForceMode logs failures and keeps going instead of aborting the run.
	ForceMode bool
	// LoggingEnabled controls whether command details reach the log stream.
	LoggingEnabled bool
}

// Engine orchestrates job submission, concurrent execution, result
// collection, and the fail-fast versus force-mode error policy. The engine
// owns every job from submission until its results are collected.
type Engine struct {
	options   Options
	pool      *WorkerPool
	collector *ResultCollector
	runner    CommandRunner
	console   ConsoleSink
	logger    *zap.Logger

	executionContext context.Context
	pendingJobCount  int
	abortFailure     error
}

// NewEngine constructs an engine for one orchestration run. The pool is only
// spawned for WorkerCount greater than one. A nil logStream, like
// LoggingEnabled being false, disables command logging.
func NewEngine(executionContext context.Context, options Options, runner CommandRunner, console ConsoleSink, logStream io.Writer, logger *zap.Logger) (*Engine, error) {
	if runner == nil {
		return nil, ErrRunnerNotConfigured
	}
	if options.WorkerCount < 1 {
		return nil, InvalidWorkerCountError{WorkerCount: options.WorkerCount}
	}
	if executionContext == nil {
		executionContext = context.Background()
	}
	if console == nil {
		console = NoopConsoleSink()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !options.LoggingEnabled {
		logStream = nil
	}

	constructedEngine := &Engine{
		options:          options,
		collector:        NewResultCollector(logStream, options.ForceMode),
		runner:           runner,
		console:          console,
		logger:           logger,
		executionContext: executionContext,
	}

	if options.WorkerCount > 1 {
		constructedEngine.pool = NewWorkerPool(options.WorkerCount, runner, console, logger)
		constructedEngine.pool.Start(executionContext)
	}

	return constructedEngine, nil
}

// FailedCommandCount reports how many executed commands exited non-zero.
func (engine *Engine) FailedCommandCount() int {
	return engine.collector.FailedCommandCount()
}

// SubmitJob hands a job to the engine. Completed results are drained first so
// a failure detected mid-run aborts promptly; submission then blocks while
// the bounded request queue is full, which is the backpressure bound between
// producer and workers.
func (engine *Engine) SubmitJob(submittedJob *Job) error {
	if engine.abortFailure != nil {
		return engine.abortFailure
	}

	if engine.pool == nil {
		submittedJob.Run(engine.executionContext, engine.runner, engine.console)
		return engine.collectJob(submittedJob)
	}

	if drainError := engine.DrainCompleted(); drainError != nil {
		return drainError
	}

	if submitError := engine.pool.Submit(submittedJob); submitError != nil {
		return submitError
	}
	engine.pendingJobCount++
	return nil
}

// DrainCompleted opportunistically collects any already-completed jobs
// without blocking. Producers call this between submissions so fail-fast
// aborts happen promptly rather than only at the end of the run.
func (engine *Engine) DrainCompleted() error {
	if engine.abortFailure != nil {
		return engine.abortFailure
	}
	if engine.pool == nil {
		return nil
	}

	for {
		completedJob, jobAvailable := engine.pool.TryTakeCompleted()
		if !jobAvailable {
			return nil
		}
		engine.pendingJobCount--
		if collectError := engine.collectJob(completedJob); collectError != nil {
			return collectError
		}
	}
}

// WaitAllAndStop blocks until every outstanding result is collected, then
// stops the pool. In force mode a non-zero failure count surfaces as a
// RunFailuresError after all jobs have been attempted.
func (engine *Engine) WaitAllAndStop() error {
	if engine.abortFailure != nil {
		return engine.abortFailure
	}

	if engine.pool != nil {
		for engine.pendingJobCount > 0 {
			completedJob := engine.pool.TakeCompleted()
			engine.pendingJobCount--
			if collectError := engine.collectJob(completedJob); collectError != nil {
				return collectError
			}
		}
		engine.pool.Stop()
	}

	if engine.collector.FailedCommandCount() > 0 && engine.options.ForceMode {
		return RunFailuresError{FailedCommandCount: engine.collector.FailedCommandCount()}
	}
	return nil
}

// collectJob routes one completed job through the collector. In fail-fast
// mode a command failure stops the pool, drains the remaining in-flight
// results for logging, and latches the failure for all later calls.
func (engine *Engine) collectJob(completedJob *Job) error {
	collectError := engine.collector.HandleCompletedJob(completedJob)
	if collectError == nil {
		return nil
	}

	failedCommand := completedJob.FirstFailedCommand()
	logFields := []zap.Field{}
	if failedCommand != nil {
		logFields = append(
			logFields,
			zap.String(logFieldFailedCommandConstant, failedCommand.CommandLine),
			zap.Int(logFieldExitCodeConstant, failedCommand.ResultCode),
		)
	}
	engine.logger.Warn(failFastAbortLogMessageConstant, logFields...)

	engine.abortFailure = collectError
	engine.abortRemainingWork()
	return collectError
}

// abortRemainingWork stops the pool so no queued job is dispatched, then logs
// whatever results were already in flight. Jobs still sitting in the request
// queue were never dispatched and produce no results.
func (engine *Engine) abortRemainingWork() {
	if engine.pool == nil {
		return
	}

	engine.pool.Stop()
	for {
		completedJob, jobAvailable := engine.pool.TryTakeCompleted()
		if !jobAvailable {
			return
		}
		engine.pendingJobCount--
		_ = engine.collector.HandleCompletedJob(completedJob)
	}
}
