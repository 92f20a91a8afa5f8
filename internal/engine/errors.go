package engine

import (
	"errors"
	"fmt"
)

const (
	commandFailedErrorTemplateConstant  = "command %s failed with exit code %d"
	runFailuresErrorTemplateConstant    = "%d command(s) failed during the run"
	invalidWorkerCountTemplateConstant  = "worker count must be at least 1, got %d"
	engineStoppedMessageConstant        = "engine stopped accepting jobs"
	runnerNotConfiguredMessageConstant  = "engine requires a command runner"
)

// ErrEngineStopped reports a job submitted after a fail-fast abort.
var ErrEngineStopped = errors.New(engineStoppedMessageConstant)

// ErrRunnerNotConfigured reports an engine constructed without a command runner.
var ErrRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)

// CommandFailedError reports a command that ran and exited non-zero. In
// fail-fast mode the first occurrence aborts the run and carries the exit
// code up to the orchestrator, which owns the final exit status decision.
type CommandFailedError struct {
	CommandLine string
	ExitCode    int
}

// Error describes the failed command.
func (failureError CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failureError.CommandLine, failureError.ExitCode)
}

// RunFailuresError summarizes a force-mode run during which commands failed.
// The run itself completed; the error exists so the caller can exit non-zero.
type RunFailuresError struct {
	FailedCommandCount int
}

// Error reports how many commands failed.
func (runError RunFailuresError) Error() string {
	return fmt.Sprintf(runFailuresErrorTemplateConstant, runError.FailedCommandCount)
}

// InvalidWorkerCountError reports an engine configured with fewer than one worker.
type InvalidWorkerCountError struct {
	WorkerCount int
}

// Error describes the invalid worker count.
func (countError InvalidWorkerCountError) Error() string {
	return fmt.Sprintf(invalidWorkerCountTemplateConstant, countError.WorkerCount)
}
