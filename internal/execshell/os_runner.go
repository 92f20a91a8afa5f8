package execshell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

const (
	systemShellExecutableConstant  = "sh"
	systemShellCommandFlagConstant = "-c"
)

// OSCommandRunner executes command lines through the operating system shell.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec and the system shell.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command line via `sh -c`, capturing stdout and
// stderr into one combined stream the way an interactive user would see them.
func (runner *OSCommandRunner) Run(executionContext context.Context, commandLine string) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, systemShellExecutableConstant, systemShellCommandFlagConstant, commandLine)

	var combinedOutputBuffer bytes.Buffer
	executable.Stdout = &combinedOutputBuffer
	executable.Stderr = &combinedOutputBuffer

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				CombinedOutput: combinedOutputBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		CombinedOutput: combinedOutputBuffer.String(),
		ExitCode:       0,
	}, nil
}
