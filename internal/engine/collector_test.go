package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/grit/internal/engine"
)

const (
	collectorFailFastCaseNameConstant   = "fail_fast_reports_first_failed_command"
	collectorForceModeCaseNameConstant  = "force_mode_counts_failures_and_continues"
	collectorHandlerCaseNameConstant    = "result_handlers_run_before_logging"
	collectorLogRulerConstant           = "--------------------------------------------------------------------------------"
	collectorSucceedingCommandConstant  = "echo healthy"
	collectorFailingCommandConstant     = "false broken"
	collectorNotExecutedCommandConstant = "echo unreached"
)

func runCollectorJob(testInstance *testing.T, jobCommands ...*engine.Command) *engine.Job {
	testInstance.Helper()
	commandRunner := &scriptedCommandRunner{
		failingCommandLines: map[string]struct{}{collectorFailingCommandConstant: {}},
	}
	collectedJob := engine.NewJob("collector", jobCommands...)
	collectedJob.Run(context.Background(), commandRunner, engine.NoopConsoleSink())
	return collectedJob
}

func TestResultCollector(testInstance *testing.T) {
	testInstance.Run(collectorFailFastCaseNameConstant, func(subtestInstance *testing.T) {
		logBuilder := &strings.Builder{}
		resultCollector := engine.NewResultCollector(logBuilder, false)

		collectedJob := runCollectorJob(
			subtestInstance,
			engine.NewCommand(collectorSucceedingCommandConstant),
			engine.NewCommand(collectorFailingCommandConstant),
			engine.NewCommand(collectorNotExecutedCommandConstant),
		)

		collectError := resultCollector.HandleCompletedJob(collectedJob)
		var commandFailure engine.CommandFailedError
		require.ErrorAs(subtestInstance, collectError, &commandFailure)
		require.Equal(subtestInstance, collectorFailingCommandConstant, commandFailure.CommandLine)

		logContents := logBuilder.String()
		require.Contains(subtestInstance, logContents, collectorLogRulerConstant)
		require.Contains(subtestInstance, logContents, "- "+collectorSucceedingCommandConstant)
		require.Contains(subtestInstance, logContents, "- "+collectorFailingCommandConstant)
		require.NotContains(subtestInstance, logContents, collectorNotExecutedCommandConstant)
	})

	testInstance.Run(collectorForceModeCaseNameConstant, func(subtestInstance *testing.T) {
		resultCollector := engine.NewResultCollector(nil, true)

		firstJob := runCollectorJob(subtestInstance, engine.NewCommand(collectorFailingCommandConstant))
		secondJob := runCollectorJob(subtestInstance, engine.NewCommand(collectorSucceedingCommandConstant))

		require.NoError(subtestInstance, resultCollector.HandleCompletedJob(firstJob))
		require.NoError(subtestInstance, resultCollector.HandleCompletedJob(secondJob))
		require.Equal(subtestInstance, 1, resultCollector.FailedCommandCount())
	})

	testInstance.Run(collectorHandlerCaseNameConstant, func(subtestInstance *testing.T) {
		resultCollector := engine.NewResultCollector(nil, true)

		handledCommandLines := []string{}
		handledCommand := engine.NewCommand(collectorSucceedingCommandConstant).
			WithResultHandler(func(completedCommand *engine.Command) {
				handledCommandLines = append(handledCommandLines, completedCommand.CommandLine)
			}, "client-data")

		collectedJob := runCollectorJob(subtestInstance, handledCommand)
		require.NoError(subtestInstance, resultCollector.HandleCompletedJob(collectedJob))
		require.Equal(subtestInstance, []string{collectorSucceedingCommandConstant}, handledCommandLines)
	})
}
