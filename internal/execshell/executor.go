package execshell

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor requires a logger"
	commandRunnerNotConfiguredMessageConstant = "shell executor requires a command runner"
	commandExecutionErrorTemplateConstant     = "command %s failed: %v"
	commandStartedLogMessageConstant          = "shell command started"
	commandCompletedLogMessageConstant        = "shell command completed"
	logFieldCommandLineConstant               = "command_line"
	logFieldExitCodeConstant                  = "exit_code"
)

// ErrLoggerNotConfigured reports a ShellExecutor constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured reports a ShellExecutor constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// ExecutionResult captures the exit code and combined output of one command.
type ExecutionResult struct {
	CombinedOutput string
	ExitCode       int
}

// CommandRunner executes one shell command line.
type CommandRunner interface {
	Run(executionContext context.Context, commandLine string) (ExecutionResult, error)
}

// CommandExecutionError reports a command that could not be spawned at all,
// as opposed to one that ran and exited non-zero.
type CommandExecutionError struct {
	CommandLine string
	Cause       error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.CommandLine, executionError.Cause)
}

// Unwrap exposes the underlying failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs shell command lines through a CommandRunner with
// structured diagnostics.
type ShellExecutor struct {
	logger *zap.Logger
	runner CommandRunner
}

// NewShellExecutor constructs a ShellExecutor, validating its collaborators.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner}, nil
}

// RunShellCommand executes one command line and returns its result. Non-zero
// exit codes are reported through the result, not as errors; only spawn
// failures produce a CommandExecutionError.
func (executor *ShellExecutor) RunShellCommand(executionContext context.Context, commandLine string) (ExecutionResult, error) {
	executor.logger.Debug(commandStartedLogMessageConstant, zap.String(logFieldCommandLineConstant, commandLine))

	executionResult, runError := executor.runner.Run(executionContext, commandLine)
	if runError != nil {
		return ExecutionResult{}, CommandExecutionError{CommandLine: commandLine, Cause: runError}
	}

	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandLineConstant, commandLine),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}
