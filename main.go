package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/grit/cmd/cli"
	"github.com/temirov/grit/internal/engine"
)

const (
	exitErrorTemplateConstant = "%v\n"
	fallbackExitCodeConstant  = 1
)

// main executes the grit command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(exitCodeForError(executionError))
	}
}

// exitCodeForError maps a failed run to the process exit status. A command
// that ran and exited non-zero propagates its own exit code; every other
// failure exits 1.
func exitCodeForError(executionError error) int {
	var commandFailure engine.CommandFailedError
	if errors.As(executionError, &commandFailure) && commandFailure.ExitCode > 0 {
		return commandFailure.ExitCode
	}
	return fallbackExitCodeConstant
}
