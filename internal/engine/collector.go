package engine

import (
	"io"
	"strings"
)

const (
	logEntryRulerWidthConstant     = 80
	logEntryRulerRuneConstant      = "-"
	logEntryCommandPrefixConstant  = "- "
	logEntryLineBreakConstant      = "\n"
)

// ResultCollector drains completed jobs, invokes per-command result handlers,
// and appends command details to the shared log stream. The collector is the
// single writer of the log stream, which keeps concurrent runs free of
// interleaved log entries.
type ResultCollector struct {
	logStream          io.Writer
	forceMode          bool
	failedCommandCount int
}

// NewResultCollector constructs a collector. A nil log stream disables
// command logging entirely.
func NewResultCollector(logStream io.Writer, forceMode bool) *ResultCollector {
	return &ResultCollector{logStream: logStream, forceMode: forceMode}
}

// FailedCommandCount reports how many executed commands exited non-zero.
func (collector *ResultCollector) FailedCommandCount() int {
	return collector.failedCommandCount
}

// HandleCompletedJob processes one completed job: every command's handler is
// invoked, every command is logged, and in fail-fast mode the first non-zero
// exit code is returned as a CommandFailedError for the orchestrator to act
// on. In force mode, commands the job skipped after an abort are still logged
// without output and are not failures by themselves.
func (collector *ResultCollector) HandleCompletedJob(completedJob *Job) error {
	for _, jobCommand := range completedJob.Commands {
		if jobCommand.ResultHandler != nil {
			jobCommand.ResultHandler(jobCommand)
		}

		collector.appendLogEntry(jobCommand)

		if !jobCommand.Executed() || jobCommand.Succeeded() {
			continue
		}

		collector.failedCommandCount++
		if !collector.forceMode {
			return CommandFailedError{CommandLine: jobCommand.CommandLine, ExitCode: jobCommand.ResultCode}
		}
	}
	return nil
}

func (collector *ResultCollector) appendLogEntry(loggedCommand *Command) {
	if collector.logStream == nil {
		return
	}

	entryBuilder := strings.Builder{}
	rulerLine := strings.Repeat(logEntryRulerRuneConstant, logEntryRulerWidthConstant) + logEntryLineBreakConstant
	entryBuilder.WriteString(rulerLine)
	entryBuilder.WriteString(logEntryCommandPrefixConstant + loggedCommand.CommandLine + logEntryLineBreakConstant)
	entryBuilder.WriteString(rulerLine)
	entryBuilder.WriteString(loggedCommand.ResultOutput)

	_, _ = io.WriteString(collector.logStream, entryBuilder.String())
}
