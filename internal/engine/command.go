package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/grit/internal/execshell"
)

const (
	// ResultCodeNotExecutedConstant distinguishes a command that never ran
	// from one that ran and returned zero.
	ResultCodeNotExecutedConstant = -1

	// spawnFailureResultCode mirrors the shell convention for commands that
	// could not be started at all.
	spawnFailureResultCode = 127

	failureReportRulerWidthConstant  = 80
	failureReportRulerRuneConstant   = "-"
	failureReportLineBreakConstant   = "\n"
)

// CommandRunner abstracts the shell invocation primitive used by workers.
type CommandRunner interface {
	RunShellCommand(executionContext context.Context, commandLine string) (execshell.ExecutionResult, error)
}

// ConsoleSink publishes human-readable progress lines. PrintBlock writes a
// multi-line block in a single call so concurrent workers never interleave
// failure reports.
type ConsoleSink interface {
	PrintLine(line string)
	PrintBlock(block string)
}

type noopConsoleSink struct{}

func (noopConsoleSink) PrintLine(string)  {}
func (noopConsoleSink) PrintBlock(string) {}

// NoopConsoleSink returns a sink that discards all console output.
func NoopConsoleSink() ConsoleSink {
	return noopConsoleSink{}
}

// CommandState tracks the lifecycle of one command.
type CommandState int

// Command lifecycle states. Succeeded and Failed are terminal.
const (
	CommandStatePending CommandState = iota
	CommandStateRunning
	CommandStateSucceeded
	CommandStateFailed
)

// Command holds one external-process invocation request and its captured
// result. A command is mutated only by the worker executing it and is
// read-only once its job reaches the result queue.
type Command struct {
	CommandLine     string
	InitDisplayLine string
	DoneDisplayLine string
	ResultCode      int
	ResultOutput    string
	ResultHandler   func(completedCommand *Command)
	ClientData      any

	state CommandState
}

// NewCommand constructs a pending command for the given shell command line.
func NewCommand(commandLine string) *Command {
	return &Command{CommandLine: commandLine, ResultCode: ResultCodeNotExecutedConstant, state: CommandStatePending}
}

// WithDisplayLines attaches the lines printed before and after execution.
func (command *Command) WithDisplayLines(initDisplayLine string, doneDisplayLine string) *Command {
	command.InitDisplayLine = initDisplayLine
	command.DoneDisplayLine = doneDisplayLine
	return command
}

// WithResultHandler attaches a handler invoked by the result collector.
func (command *Command) WithResultHandler(resultHandler func(completedCommand *Command), clientData any) *Command {
	command.ResultHandler = resultHandler
	command.ClientData = clientData
	return command
}

// State returns the command lifecycle state.
func (command *Command) State() CommandState {
	return command.state
}

// Executed reports whether the command ran, regardless of its outcome.
func (command *Command) Executed() bool {
	return command.state == CommandStateSucceeded || command.state == CommandStateFailed
}

// Succeeded reports whether the command ran and returned zero.
func (command *Command) Succeeded() bool {
	return command.state == CommandStateSucceeded
}

// Execute runs the command synchronously on the calling worker, capturing the
// combined output and exit status. Failures print the full command line and
// output to the console immediately so a human watching a concurrent run can
// identify the failing target before the log file is written.
func (command *Command) Execute(executionContext context.Context, runner CommandRunner, console ConsoleSink) {
	command.state = CommandStateRunning

	if len(command.InitDisplayLine) > 0 {
		console.PrintLine(command.InitDisplayLine)
	}

	executionResult, executionError := runner.RunShellCommand(executionContext, command.CommandLine)
	if executionError != nil {
		command.ResultCode = spawnFailureResultCode
		command.ResultOutput = executionError.Error() + failureReportLineBreakConstant
		command.state = CommandStateFailed
		console.PrintBlock(command.FailureReport())
		return
	}

	command.ResultCode = executionResult.ExitCode
	command.ResultOutput = executionResult.CombinedOutput

	if executionResult.ExitCode == 0 {
		command.state = CommandStateSucceeded
		if len(command.DoneDisplayLine) > 0 {
			console.PrintLine(command.DoneDisplayLine)
		}
		return
	}

	command.state = CommandStateFailed
	console.PrintBlock(command.FailureReport())
}

// FailureReport renders the command line and captured output as one block.
func (command *Command) FailureReport() string {
	reportBuilder := strings.Builder{}
	reportBuilder.WriteString(strings.Repeat(failureReportRulerRuneConstant, failureReportRulerWidthConstant))
	reportBuilder.WriteString(failureReportLineBreakConstant)
	reportBuilder.WriteString(command.CommandLine)
	reportBuilder.WriteString(failureReportLineBreakConstant)
	reportBuilder.WriteString(command.ResultOutput)
	return reportBuilder.String()
}

// String identifies the command for diagnostics.
func (command *Command) String() string {
	return fmt.Sprintf("%q", command.CommandLine)
}
