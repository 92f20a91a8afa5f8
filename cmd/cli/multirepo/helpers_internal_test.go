package multirepo

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/grit/internal/engine"
	"github.com/temirov/grit/internal/manifest"
	"github.com/temirov/grit/internal/utils"
	"github.com/temirov/grit/internal/workspace"
)

const (
	sessionLogsConfigurationFileCaseNameConstant = "session_logs_configuration_file"
	abortStopsEngineCaseNameConstant             = "abort_stops_the_engine"
	sessionTestConfigurationFilePathConstant     = "/tmp/grit/config.yaml"
)

func prepareSessionWorkspace(testInstance *testing.T) (*workspace.Workspace, string) {
	testInstance.Helper()
	workspaceRoot := testInstance.TempDir()
	preparedWorkspace, prepareError := workspace.Prepare(workspaceRoot)
	require.NoError(testInstance, prepareError)

	defaultProfile := manifest.NewProfile("defaults")
	require.NoError(testInstance, defaultProfile.ApplySettings(map[string]any{
		"remote-url": "https://git.example.com",
		"branch":     "main",
	}))
	activeManifest := manifest.NewManifest()
	require.NoError(testInstance, activeManifest.AddProfile(defaultProfile))
	activeManifest.SetDefaultProfileName(defaultProfile.Name())
	require.NoError(testInstance, activeManifest.AddRepository(manifest.NewRepository("team/alpha")))
	require.NoError(testInstance, workspace.SaveActiveManifest(preparedWorkspace, activeManifest))
	return preparedWorkspace, workspaceRoot
}

func TestRunSession(testInstance *testing.T) {
	testInstance.Run(sessionLogsConfigurationFileCaseNameConstant, func(subtestInstance *testing.T) {
		_, workspaceRoot := prepareSessionWorkspace(subtestInstance)

		observedCore, observedEntries := observer.New(zapcore.DebugLevel)
		observedLogger := zap.New(observedCore)
		executionContext := utils.NewCommandContextAccessor().WithConfigurationFilePath(context.Background(), sessionTestConfigurationFilePathConstant)

		runConfiguration := RunConfiguration{ParallelJobs: 1, Groups: defaultGroupsSelectorConstant, NoLog: true}
		session, sessionError := openRunSession(executionContext, observedLogger, runConfiguration, io.Discard, workspaceRoot)
		require.NoError(subtestInstance, sessionError)
		defer session.abort()

		loggedEntries := observedEntries.FilterMessage(configurationFileLogMessageConstant).All()
		require.Len(subtestInstance, loggedEntries, 1)
		require.Equal(subtestInstance, sessionTestConfigurationFilePathConstant, loggedEntries[0].ContextMap()[logFieldConfigurationFileConstant])
	})

	testInstance.Run(abortStopsEngineCaseNameConstant, func(subtestInstance *testing.T) {
		_, workspaceRoot := prepareSessionWorkspace(subtestInstance)

		runConfiguration := RunConfiguration{ParallelJobs: 2, Groups: defaultGroupsSelectorConstant, NoLog: true}
		session, sessionError := openRunSession(context.Background(), zap.NewNop(), runConfiguration, io.Discard, workspaceRoot)
		require.NoError(subtestInstance, sessionError)

		session.abort()

		submissionError := session.orchestration.SubmitJob(engine.NewJob("late", engine.NewCommand("echo late")))
		require.ErrorIs(subtestInstance, submissionError, engine.ErrEngineStopped)
	})
}
